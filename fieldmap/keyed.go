package fieldmap

import (
	"github.com/jcass77/WTFIX-sub000/field"
)

// KeyedFieldMap is a fast, map-backed FieldMap. It rejects duplicate tags,
// which makes it appropriate for the top-level fields of a message (or of a
// single repeating-group instance), where FIX guarantees each tag appears at
// most once.
type KeyedFieldMap struct {
	fields map[int]field.Field
	order  []int
}

// NewKeyed returns an empty KeyedFieldMap.
func NewKeyed() *KeyedFieldMap {
	return &KeyedFieldMap{fields: make(map[int]field.Field)}
}

// Get returns the field for tag, or a TagNotFoundError.
func (m *KeyedFieldMap) Get(tag int) (field.Field, error) {
	f, ok := m.fields[tag]
	if !ok {
		return field.Field{}, &TagNotFoundError{Tag: tag}
	}
	return f, nil
}

// Set stores f, returning a DuplicateTagError if the tag is already present.
func (m *KeyedFieldMap) Set(f field.Field) error {
	if _, ok := m.fields[f.Tag()]; ok {
		return &DuplicateTagError{Tag: f.Tag()}
	}
	m.fields[f.Tag()] = f
	m.order = append(m.order, f.Tag())
	return nil
}

// Has reports whether tag is present.
func (m *KeyedFieldMap) Has(tag int) bool {
	_, ok := m.fields[tag]
	return ok
}

// Delete removes tag, if present.
func (m *KeyedFieldMap) Delete(tag int) {
	if _, ok := m.fields[tag]; !ok {
		return
	}
	delete(m.fields, tag)
	for i, t := range m.order {
		if t == tag {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Fields returns the fields in the order they were first set.
func (m *KeyedFieldMap) Fields() []field.Field {
	out := make([]field.Field, 0, len(m.order))
	for _, t := range m.order {
		out = append(out, m.fields[t])
	}
	return out
}

// Len returns the number of distinct tags stored.
func (m *KeyedFieldMap) Len() int {
	return len(m.fields)
}
