// Package fieldmap implements the map a FIX message body (or a repeating
// group instance) is built from: a keyed map giving fast, duplicate-free tag
// lookup, the form FIX itself requires outside of a repeating group.
package fieldmap

import (
	"fmt"

	"github.com/jcass77/WTFIX-sub000/field"
)

// TagNotFoundError is returned when a lookup misses.
type TagNotFoundError struct {
	Tag int
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag %d not found", e.Tag)
}

// DuplicateTagError is returned by a KeyedFieldMap when a tag already present
// is set again outside of a repeating group.
type DuplicateTagError struct {
	Tag int
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate tag %d", e.Tag)
}

// FieldMap is the common contract both a message body and a group instance
// satisfy: get/set by tag, iterate in wire order, and report size.
type FieldMap interface {
	Get(tag int) (field.Field, error)
	Set(f field.Field) error
	Has(tag int) bool
	Delete(tag int)
	Fields() []field.Field
	Len() int
}

// Group is a repeating group: an ordered list of Instances, one per
// repetition, keyed under the group's identifier tag.
type Group struct {
	IdentifierTag int
	Instances     []*Instance
}

// Len returns the number of repetitions (NumInGroup value).
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Instances)
}

// Instance is a single repetition of a repeating group: a flat FieldMap of
// the instance's own tags, plus - when a tag in the instance template is
// itself a nested group's identifier tag - the nested groups it carries.
// Groups nest (e.g. NoNestedPartyIDs instances each carrying their own
// NoNestedPartySubIDs), so an instance needs the same field-or-group duality a
// top-level Message has, one level down.
type Instance struct {
	fields     FieldMap
	groups     map[int]*Group
	groupOrder []int
}

// NewInstance returns an empty group instance.
func NewInstance() *Instance {
	return &Instance{fields: NewKeyed(), groups: make(map[int]*Group)}
}

// Get returns the field for tag from the instance's flat fields.
func (i *Instance) Get(tag int) (field.Field, error) {
	return i.fields.Get(tag)
}

// Set stores a flat field in the instance, returning a DuplicateTagError if
// tag is already present.
func (i *Instance) Set(f field.Field) error {
	return i.fields.Set(f)
}

// Has reports whether tag is present among the instance's flat fields.
func (i *Instance) Has(tag int) bool {
	return i.fields.Has(tag)
}

// Delete removes tag from the instance's flat fields, if present.
func (i *Instance) Delete(tag int) {
	i.fields.Delete(tag)
}

// Fields returns the instance's flat fields, excluding nested groups, in the
// order they were set.
func (i *Instance) Fields() []field.Field {
	return i.fields.Fields()
}

// Len returns the number of flat tags stored (nested groups are not
// counted).
func (i *Instance) Len() int {
	return i.fields.Len()
}

// SetGroup attaches or replaces a nested repeating group under its
// identifier tag.
func (i *Instance) SetGroup(g *Group) {
	if _, exists := i.groups[g.IdentifierTag]; !exists {
		i.groupOrder = append(i.groupOrder, g.IdentifierTag)
	}
	i.groups[g.IdentifierTag] = g
}

// Group returns the nested repeating group for tag, if any.
func (i *Instance) Group(tag int) (*Group, bool) {
	g, ok := i.groups[tag]
	return g, ok
}

// Groups returns the instance's nested repeating groups in the order they
// were first attached.
func (i *Instance) Groups() []*Group {
	out := make([]*Group, 0, len(i.groupOrder))
	for _, tag := range i.groupOrder {
		out = append(out, i.groups[tag])
	}
	return out
}
