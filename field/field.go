// Package field implements the atomic unit of a FIX message: an integer tag
// paired with a byte-sequence value, together with the view conversions
// the wire protocol needs (string, int, bool).
package field

import (
	"strconv"
	"strings"
)

// NullInt is the FIX convention for "no value" on an otherwise numeric field.
const NullInt = -2147483648

const nullIntStr = "-2147483648"

// truthy/falsy sets recognized when decoding a FIX boolean field. FIX itself
// only ever writes "Y"/"N", but counterparties are occasionally lenient.
var truthy = map[string]bool{"Y": true, "y": true, "1": true, "true": true, "True": true}
var falsy = map[string]bool{"N": true, "n": true, "0": true, "false": true, "False": true}

// Field is an immutable (tag, value) pair. Value is kept in wire form (raw
// bytes) and converted on demand.
type Field struct {
	tag int
	raw []byte
}

// New constructs a Field from a tag and a string value.
func New(tag int, value string) Field {
	return Field{tag: tag, raw: []byte(value)}
}

// NewBytes constructs a Field from a tag and a raw byte value, as produced by
// the wire decoder.
func NewBytes(tag int, value []byte) Field {
	// Copy to guarantee immutability: the caller's buffer may be reused.
	cp := make([]byte, len(value))
	copy(cp, value)
	return Field{tag: tag, raw: cp}
}

// NewInt constructs a Field from an integer value.
func NewInt(tag int, value int) Field {
	return New(tag, strconv.Itoa(value))
}

// NewBool constructs a Field using the FIX Y/N boolean encoding.
func NewBool(tag int, value bool) Field {
	if value {
		return New(tag, "Y")
	}
	return New(tag, "N")
}

// Tag returns the field's tag number.
func (f Field) Tag() int { return f.tag }

// Raw returns the field's wire-form value. The returned slice must not be
// mutated by the caller.
func (f Field) Raw() []byte { return f.raw }

// IsNull reports whether this field carries the FIX null sentinel.
func (f Field) IsNull() bool {
	return string(f.raw) == nullIntStr
}

// String returns the decoded string value, or "" if the field is null.
func (f Field) String() string {
	if f.IsNull() {
		return ""
	}
	return string(f.raw)
}

// Int returns the decoded integer value. Returns (0, false) if the field is
// null or not a valid integer.
func (f Field) Int() (int, bool) {
	if f.IsNull() {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(f.raw)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool decodes the field using the canonical FIX truthy/falsy set.
func (f Field) Bool() (bool, bool) {
	s := string(f.raw)
	if truthy[s] {
		return true, true
	}
	if falsy[s] {
		return false, true
	}
	return false, false
}

// Equal reports whether two fields have the same tag and value.
func (f Field) Equal(other Field) bool {
	return f.tag == other.tag && string(f.raw) == string(other.raw)
}
