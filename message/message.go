// Package message implements the FIX Message: a header/body/trailer view
// over a FieldMap, with the raw-encoding and validation behaviour the wire
// codec and session layer depend on.
package message

import (
	"fmt"

	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/fieldmap"
)

// Standard tag numbers referenced directly by the message model. The full
// tag/name table lives in package dictionary; these are pulled in here
// because header/trailer framing is baked into every message regardless of
// dictionary content.
const (
	TagBeginString     = 8
	TagBodyLength      = 9
	TagMsgType         = 35
	TagMsgSeqNum       = 34
	TagSenderCompID    = 49
	TagTargetCompID    = 56
	TagSendingTime     = 52
	TagPossDupFlag     = 43
	TagOrigSendingTime = 122
	TagCheckSum        = 10
)

// headerTrailerTags are the framing tags (8, 9, 35, 10) that Fields() leaves
// out of the body view.
var headerTrailerTags = map[int]bool{
	TagBeginString: true,
	TagBodyLength:  true,
	TagMsgType:     true,
	TagCheckSum:    true,
}

// ValidationError reports a structurally invalid message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}

// Message is a FIX message: header/body/trailer fields stored in a single
// FieldMap plus a list of repeating groups keyed by their identifier tag.
type Message struct {
	BeginString string
	body        fieldmap.FieldMap
	groups      map[int]*fieldmap.Group
	groupOrder  []int
}

// New constructs an empty Message of the given message type.
func New(msgType string) *Message {
	m := &Message{
		BeginString: "FIX.4.4",
		body:        fieldmap.NewKeyed(),
		groups:      make(map[int]*fieldmap.Group),
	}
	_ = m.body.Set(field.New(TagMsgType, msgType))
	return m
}

// NewFromFieldMap wraps an already-populated FieldMap (as produced by the
// wire decoder) as a Message. fm must already contain tag 35. groupOrder
// records the order in which groups were encountered on the wire, so a
// decoded message re-encodes deterministically.
func NewFromFieldMap(beginString string, fm fieldmap.FieldMap, groups map[int]*fieldmap.Group, groupOrder []int) *Message {
	if groups == nil {
		groups = make(map[int]*fieldmap.Group)
	}
	return &Message{BeginString: beginString, body: fm, groups: groups, groupOrder: groupOrder}
}

// Type returns the value of tag 35 (MsgType).
func (m *Message) Type() string {
	f, err := m.body.Get(TagMsgType)
	if err != nil {
		return ""
	}
	return f.String()
}

// SeqNum returns the value of tag 34 (MsgSeqNum), or (0, false) if absent.
func (m *Message) SeqNum() (int, bool) {
	f, err := m.body.Get(TagMsgSeqNum)
	if err != nil {
		return 0, false
	}
	return f.Int()
}

// SetSeqNum sets tag 34.
func (m *Message) SetSeqNum(seqNum int) {
	m.body.Delete(TagMsgSeqNum)
	_ = m.body.Set(field.NewInt(TagMsgSeqNum, seqNum))
}

// SenderCompID returns the value of tag 49.
func (m *Message) SenderCompID() string {
	f, err := m.body.Get(TagSenderCompID)
	if err != nil {
		return ""
	}
	return f.String()
}

// TargetCompID returns the value of tag 56.
func (m *Message) TargetCompID() string {
	f, err := m.body.Get(TagTargetCompID)
	if err != nil {
		return ""
	}
	return f.String()
}

// IsPossDup reports whether tag 43 (PossDupFlag) is set to Y.
func (m *Message) IsPossDup() bool {
	f, err := m.body.Get(TagPossDupFlag)
	if err != nil {
		return false
	}
	v, _ := f.Bool()
	return v
}

// Get returns the field for tag from the message body.
func (m *Message) Get(tag int) (field.Field, error) {
	return m.body.Get(tag)
}

// Set stores a field in the message body, replacing any tag already there
// (top-level fields are not expected to repeat outside of a group).
func (m *Message) Set(f field.Field) {
	m.body.Delete(f.Tag())
	_ = m.body.Set(f)
}

// SetGroup attaches or replaces a repeating group under its identifier tag.
func (m *Message) SetGroup(g *fieldmap.Group) {
	if _, exists := m.groups[g.IdentifierTag]; !exists {
		m.groupOrder = append(m.groupOrder, g.IdentifierTag)
	}
	m.groups[g.IdentifierTag] = g
}

// Group returns the repeating group for tag, if any.
func (m *Message) Group(tag int) (*fieldmap.Group, bool) {
	g, ok := m.groups[tag]
	return g, ok
}

// Groups returns the message's repeating groups in the order they were
// first attached (insertion order for a built message, wire order for a
// decoded one).
func (m *Message) Groups() []*fieldmap.Group {
	out := make([]*fieldmap.Group, 0, len(m.groupOrder))
	for _, tag := range m.groupOrder {
		out = append(out, m.groups[tag])
	}
	return out
}

// Fields returns the message's body fields, excluding the standard
// header/trailer tags (8, 9, 35, 10), in wire order.
func (m *Message) Fields() []field.Field {
	all := m.body.Fields()
	out := make([]field.Field, 0, len(all))
	for _, f := range all {
		if headerTrailerTags[f.Tag()] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Validate checks that the message is well-formed enough to encode: at
// minimum it must carry a MsgType.
func (m *Message) Validate() error {
	if !m.body.Has(TagMsgType) {
		return &ValidationError{Reason: "no MsgType (35) specified"}
	}
	return nil
}

// Clear removes every field and group from the message.
func (m *Message) Clear() {
	m.body = fieldmap.NewKeyed()
	m.groups = make(map[int]*fieldmap.Group)
	m.groupOrder = nil
}
