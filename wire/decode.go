package wire

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/fieldmap"
	"github.com/jcass77/WTFIX-sub000/message"
)

// ParseError reports a malformed or incomplete wire message. Err, when set,
// is the underlying cause (e.g. a *fieldmap.DuplicateTagError), reachable via
// errors.As/errors.Is.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StrictMode, when true, makes Decode verify the BodyLength (9) and
// Checksum (10) trailer fields against the bytes actually received and
// reject a mismatch. It defaults to false: most counterparties are
// tolerant, and rejecting on a miscounted BodyLength is a common source
// of unnecessary session teardown. Set StrictMode = true to get
// byte-exact framing validation instead.
var StrictMode = false

type rawPair struct {
	tag   int
	value []byte
}

// Decode parses a single, complete, SOH-delimited FIX message out of data.
// data must already be framed to exactly one message (the transport layer
// is responsible for extracting message boundaries from a byte stream).
func Decode(data []byte) (*message.Message, error) {
	data = bytes.TrimSuffix(data, []byte{SOH})
	if len(data) == 0 {
		return nil, &ParseError{Reason: "empty message"}
	}

	// Anything before the first BeginString (8=) that starts data or follows
	// an SOH is discarded.
	if !bytes.HasPrefix(data, []byte("8=")) {
		start := bytes.Index(data, []byte{SOH, '8', '='})
		if start == -1 {
			return nil, &ParseError{Reason: "missing BeginString (8) at start of message"}
		}
		data = data[start+1:]
	}

	rawFields := bytes.Split(data, []byte{SOH})
	pairs := make([]rawPair, 0, len(rawFields))
	for _, raw := range rawFields {
		parts := bytes.SplitN(raw, []byte{'='}, 2)
		if len(parts) != 2 {
			return nil, &ParseError{Reason: fmt.Sprintf("malformed field %q", raw)}
		}
		tag, err := strconv.Atoi(string(parts[0]))
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("non-numeric tag %q", parts[0])}
		}
		pairs = append(pairs, rawPair{tag: tag, value: parts[1]})
	}

	if pairs[0].tag != message.TagBeginString {
		return nil, &ParseError{Reason: "missing BeginString (8) at start of message"}
	}
	last := pairs[len(pairs)-1]
	if last.tag != message.TagCheckSum {
		return nil, &ParseError{Reason: "missing CheckSum (10) at end of message"}
	}

	beginString := string(pairs[0].value)

	// Message type must be known before any repeating group in the body can
	// be recognized: the same identifier tag can template a different
	// instance layout per message type.
	var msgType string
	var haveMsgType bool
	for _, p := range pairs {
		if p.tag == message.TagMsgType {
			msgType = string(p.value)
			haveMsgType = true
			break
		}
	}
	if !haveMsgType {
		return nil, &ParseError{Reason: "missing MsgType (35)"}
	}

	body := fieldmap.NewKeyed()
	groups := make(map[int]*fieldmap.Group)
	var groupOrder []int

	idx := 1 // skip BeginString, parsed separately
	for idx < len(pairs)-1 {
		// Skip BodyLength: the encoder re-derives it on re-encode. MsgType
		// is kept in the body FieldMap, where Message.Type() reads it.
		p := pairs[idx]
		if p.tag == message.TagBodyLength {
			idx++
			continue
		}

		if tmpl, ok := dictionary.Group(p.tag, msgType); ok {
			g, consumed, err := parseGroup(pairs, idx, tmpl, msgType)
			if err != nil {
				return nil, err
			}
			groups[p.tag] = g
			groupOrder = append(groupOrder, p.tag)
			idx += consumed
			continue
		}

		f := field.NewBytes(p.tag, p.value)
		if err := body.Set(f); err != nil {
			return nil, &ParseError{Reason: err.Error(), Err: err}
		}
		idx++
	}

	if StrictMode {
		if err := verifyFraming(pairs, data); err != nil {
			return nil, err
		}
	}

	return message.NewFromFieldMap(beginString, body, groups, groupOrder), nil
}

// parseGroup consumes the repeating group starting at pairs[idx] (whose tag
// is the group's identifier/counter tag) and returns the parsed Group plus
// the number of raw pairs consumed, including the identifier field itself.
// An instance tag that is itself a nested group's identifier tag (per
// tmpl.Nested) is parsed recursively, so groups can nest arbitrarily deep.
func parseGroup(pairs []rawPair, idx int, tmpl dictionary.GroupTemplate, msgType string) (*fieldmap.Group, int, error) {
	identifier := pairs[idx]
	count, err := strconv.Atoi(string(identifier.value))
	if err != nil {
		return nil, 0, &ParseError{Reason: fmt.Sprintf("non-numeric group count for tag %d", identifier.tag)}
	}

	g := &fieldmap.Group{IdentifierTag: identifier.tag}
	pos := idx + 1

	for i := 0; i < count; i++ {
		instance := fieldmap.NewInstance()
		for _, tag := range tmpl.InstanceTags {
			if pos >= len(pairs) || pairs[pos].tag != tag {
				return nil, 0, &ParseError{Reason: fmt.Sprintf(
					"group %d instance %d: expected tag %d, got end of template", identifier.tag, i, tag)}
			}
			if nestedTmpl, ok := tmpl.Nested[tag]; ok {
				nested, consumed, err := parseGroup(pairs, pos, nestedTmpl, msgType)
				if err != nil {
					return nil, 0, err
				}
				instance.SetGroup(nested)
				pos += consumed
				continue
			}
			if err := instance.Set(field.NewBytes(pairs[pos].tag, pairs[pos].value)); err != nil {
				return nil, 0, &ParseError{Reason: err.Error(), Err: err}
			}
			pos++
		}
		g.Instances = append(g.Instances, instance)
	}

	return g, pos - idx, nil
}

func verifyFraming(pairs []rawPair, data []byte) error {
	var bodyLength int
	var haveBodyLength bool
	for _, p := range pairs {
		if p.tag == message.TagBodyLength {
			n, err := strconv.Atoi(string(p.value))
			if err != nil {
				return &ParseError{Reason: "non-numeric BodyLength (9)"}
			}
			bodyLength = n
			haveBodyLength = true
			break
		}
	}
	if !haveBodyLength {
		return &ParseError{Reason: "missing BodyLength (9)"}
	}

	checksumPos := bytes.LastIndex(data, []byte("10="))
	if checksumPos <= 0 {
		return &ParseError{Reason: "cannot locate CheckSum (10) for strict framing check"}
	}
	headerEnd := bytes.Index(data, []byte("35="))
	if headerEnd == -1 {
		return &ParseError{Reason: "cannot locate MsgType (35) for strict framing check"}
	}
	actualLen := checksumPos - headerEnd
	if actualLen != bodyLength {
		return &ParseError{Reason: fmt.Sprintf("BodyLength mismatch: header says %d, actual %d", bodyLength, actualLen)}
	}

	declaredChecksum, err := strconv.Atoi(string(bytes.TrimSuffix(data[checksumPos+3:], []byte{SOH})))
	if err != nil {
		return &ParseError{Reason: "non-numeric CheckSum (10)"}
	}
	actualChecksum := Checksum(data[:checksumPos])
	if declaredChecksum != actualChecksum {
		return &ParseError{Reason: fmt.Sprintf("checksum mismatch: header says %03d, actual %03d", declaredChecksum, actualChecksum)}
	}

	return nil
}
