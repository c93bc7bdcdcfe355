package field

import "testing"

func TestNewInt(t *testing.T) {
	f := NewInt(38, 100)
	v, ok := f.Int()
	if !ok || v != 100 {
		t.Fatalf("got (%d, %v), want (100, true)", v, ok)
	}
}

func TestNewBool(t *testing.T) {
	cases := []struct {
		value bool
		want  string
	}{
		{true, "Y"},
		{false, "N"},
	}
	for _, c := range cases {
		f := NewBool(43, c.value)
		if f.String() != c.want {
			t.Errorf("NewBool(%v).String() = %q, want %q", c.value, f.String(), c.want)
		}
		v, ok := f.Bool()
		if !ok || v != c.value {
			t.Errorf("Bool() = (%v, %v), want (%v, true)", v, ok, c.value)
		}
	}
}

func TestIsNull(t *testing.T) {
	f := New(38, nullIntStr)
	if !f.IsNull() {
		t.Fatal("expected field to be null")
	}
	if f.String() != "" {
		t.Fatalf("String() on a null field = %q, want empty", f.String())
	}
	if _, ok := f.Int(); ok {
		t.Fatal("Int() on a null field should report ok=false")
	}
}

func TestIntInvalid(t *testing.T) {
	f := New(38, "not-a-number")
	if _, ok := f.Int(); ok {
		t.Fatal("Int() on a non-numeric field should report ok=false")
	}
}

func TestBoolInvalid(t *testing.T) {
	f := New(43, "maybe")
	if _, ok := f.Bool(); ok {
		t.Fatal("Bool() on an unrecognized value should report ok=false")
	}
}

func TestEqual(t *testing.T) {
	a := New(35, "D")
	b := New(35, "D")
	c := New(35, "8")
	if !a.Equal(b) {
		t.Fatal("expected equal fields to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected differing fields to compare unequal")
	}
}

func TestNewBytesCopies(t *testing.T) {
	raw := []byte("hello")
	f := NewBytes(58, raw)
	raw[0] = 'X'
	if f.String() != "hello" {
		t.Fatalf("NewBytes did not copy its input: got %q", f.String())
	}
}
