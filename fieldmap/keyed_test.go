package fieldmap

import (
	"errors"
	"testing"

	"github.com/jcass77/WTFIX-sub000/field"
)

func TestKeyedFieldMapSetGet(t *testing.T) {
	m := NewKeyed()
	if err := m.Set(field.NewInt(34, 1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f, err := m.Get(34)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v, _ := f.Int(); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
}

func TestKeyedFieldMapDuplicate(t *testing.T) {
	m := NewKeyed()
	if err := m.Set(field.NewInt(34, 1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := m.Set(field.NewInt(34, 2))
	var dup *DuplicateTagError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateTagError, got %v", err)
	}
}

func TestKeyedFieldMapNotFound(t *testing.T) {
	m := NewKeyed()
	_, err := m.Get(99)
	var nf *TagNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected TagNotFoundError, got %v", err)
	}
}

func TestKeyedFieldMapOrderPreserved(t *testing.T) {
	m := NewKeyed()
	_ = m.Set(field.New(35, "D"))
	_ = m.Set(field.New(49, "SENDER"))
	_ = m.Set(field.New(56, "TARGET"))

	got := m.Fields()
	want := []int{35, 49, 56}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i, tag := range want {
		if got[i].Tag() != tag {
			t.Errorf("field %d: got tag %d, want %d", i, got[i].Tag(), tag)
		}
	}
}

func TestKeyedFieldMapDelete(t *testing.T) {
	m := NewKeyed()
	_ = m.Set(field.New(35, "D"))
	_ = m.Set(field.New(49, "SENDER"))
	m.Delete(35)
	if m.Has(35) {
		t.Fatal("expected tag 35 to be deleted")
	}
	if m.Len() != 1 {
		t.Fatalf("got len %d, want 1", m.Len())
	}
}
