package message

import (
	"testing"

	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/fieldmap"
)

func TestNewSetsMsgType(t *testing.T) {
	m := New("D")
	if m.Type() != "D" {
		t.Fatalf("got Type %q, want D", m.Type())
	}
	if m.BeginString != "FIX.4.4" {
		t.Fatalf("got BeginString %q, want FIX.4.4", m.BeginString)
	}
}

func TestSetReplacesExistingTag(t *testing.T) {
	m := New("D")
	m.Set(field.New(55, "BTC-USD"))
	m.Set(field.New(55, "ETH-USD"))

	f, err := m.Get(55)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f.String() != "ETH-USD" {
		t.Fatalf("got %q, want ETH-USD (the replacement, not the original)", f.String())
	}
}

func TestSeqNumRoundTrips(t *testing.T) {
	m := New("0")
	if _, ok := m.SeqNum(); ok {
		t.Fatal("expected no seq num on a freshly constructed message")
	}
	m.SetSeqNum(7)
	n, ok := m.SeqNum()
	if !ok || n != 7 {
		t.Fatalf("got (%d, %v), want (7, true)", n, ok)
	}
	m.SetSeqNum(8)
	n, ok = m.SeqNum()
	if !ok || n != 8 {
		t.Fatalf("got (%d, %v), want (8, true) after overwrite", n, ok)
	}
}

func TestIsPossDupDefaultsFalse(t *testing.T) {
	m := New("D")
	if m.IsPossDup() {
		t.Fatal("expected IsPossDup false when tag 43 is absent")
	}
	m.Set(field.NewBool(TagPossDupFlag, true))
	if !m.IsPossDup() {
		t.Fatal("expected IsPossDup true once tag 43 is set to Y")
	}
}

func TestFieldsExcludesHeaderAndTrailerTags(t *testing.T) {
	m := New("D")
	m.Set(field.New(55, "BTC-USD"))

	for _, f := range m.Fields() {
		if headerTrailerTags[f.Tag()] {
			t.Fatalf("Fields() leaked header/trailer tag %d", f.Tag())
		}
	}

	found := false
	for _, f := range m.Fields() {
		if f.Tag() == 55 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected tag 55 to appear in Fields()")
	}
}

func TestGroupsPreservesAttachOrder(t *testing.T) {
	m := New("D")
	g1 := &fieldmap.Group{IdentifierTag: 100}
	g2 := &fieldmap.Group{IdentifierTag: 200}
	m.SetGroup(g2)
	m.SetGroup(g1)

	groups := m.Groups()
	if len(groups) != 2 || groups[0].IdentifierTag != 200 || groups[1].IdentifierTag != 100 {
		t.Fatalf("got groups in the wrong order: %+v", groups)
	}

	if _, ok := m.Group(100); !ok {
		t.Fatal("expected Group(100) to find g1")
	}
	if _, ok := m.Group(999); ok {
		t.Fatal("expected Group(999) to be absent")
	}
}

func TestValidateRequiresMsgType(t *testing.T) {
	m := NewFromFieldMap("FIX.4.4", fieldmap.NewKeyed(), nil, nil)
	if err := m.Validate(); err == nil {
		t.Fatal("expected Validate to reject a message with no MsgType")
	}

	ok := New("D")
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestClearRemovesFieldsAndGroups(t *testing.T) {
	m := New("D")
	m.Set(field.New(55, "BTC-USD"))
	m.SetGroup(&fieldmap.Group{IdentifierTag: 100})

	m.Clear()

	if _, err := m.Get(55); err == nil {
		t.Fatal("expected tag 55 to be gone after Clear")
	}
	if len(m.Groups()) != 0 {
		t.Fatal("expected no groups after Clear")
	}
}
