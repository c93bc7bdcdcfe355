package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
)

func newTestIdentity(t *testing.T) *Identity {
	t.Helper()
	dir := t.TempDir()
	id, err := NewIdentity("SENDER", "TARGET", filepath.Join(dir, "session.id"))
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	return id
}

func ackLogon(m *Manager, heartBtInt int, testMode, resetSeqNums bool) *message.Message {
	ack := message.New(dictionary.MsgTypeLogon)
	ack.Set(field.NewInt(108, heartBtInt))
	ack.Set(field.NewBool(464, testMode))
	ack.Set(field.NewBool(141, resetSeqNums))
	return ack
}

func TestStartBlocksUntilLogonAck(t *testing.T) {
	var sent []*message.Message
	sender := func(ctx context.Context, msg *message.Message) error {
		sent = append(sent, msg)
		return nil
	}
	m := NewManager(newTestIdentity(t), 30, "user", "pass", true, false, sender, nil)
	m.HandshakeTimeout = time.Second

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	// Give Start a moment to send the Logon and block.
	time.Sleep(20 * time.Millisecond)
	if _, err := m.OnReceive(context.Background(), ackLogon(m, 30, false, true)); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != LoggedIn {
		t.Fatalf("got state %v, want LoggedIn", m.State())
	}
	if len(sent) != 1 || sent[0].Type() != dictionary.MsgTypeLogon {
		t.Fatalf("expected exactly one Logon to be sent, got %v", sent)
	}
}

func TestOnLogonMismatchIsFatal(t *testing.T) {
	m := NewManager(newTestIdentity(t), 30, "user", "pass", true, false, func(context.Context, *message.Message) error { return nil }, nil)

	_, err := m.OnReceive(context.Background(), ackLogon(m, 99, false, true))
	var fatal *pipeline.SessionFatal
	if !errors.As(err, &fatal) {
		t.Fatalf("expected a SessionFatal for mismatched HeartBtInt, got %v", err)
	}
}

func TestOnLogoutStopsProcessing(t *testing.T) {
	m := NewManager(newTestIdentity(t), 30, "user", "pass", true, false, func(context.Context, *message.Message) error { return nil }, nil)

	logout := message.New(dictionary.MsgTypeLogout)
	_, err := m.OnReceive(context.Background(), logout)

	var stop *pipeline.StopProcessing
	if !errors.As(err, &stop) {
		t.Fatalf("expected StopProcessing on Logout, got %v", err)
	}
	if m.State() != Disconnected {
		t.Fatalf("got state %v, want Disconnected", m.State())
	}
}

func TestOnLogonResetSeqNumFlagInvokesHook(t *testing.T) {
	m := NewManager(newTestIdentity(t), 30, "user", "pass", true, false, func(context.Context, *message.Message) error { return nil }, nil)

	var resetCalled bool
	m.OnSeqNumsReset = func() { resetCalled = true }

	if _, err := m.OnReceive(context.Background(), ackLogon(m, 30, false, true)); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if !resetCalled {
		t.Fatal("expected OnSeqNumsReset to be invoked when ResetSeqNumFlag=Y is negotiated")
	}
}

func TestOnLogonNoResetDoesNotInvokeHook(t *testing.T) {
	m := NewManager(newTestIdentity(t), 30, "user", "pass", false, false, func(context.Context, *message.Message) error { return nil }, nil)

	var resetCalled bool
	m.OnSeqNumsReset = func() { resetCalled = true }

	if _, err := m.OnReceive(context.Background(), ackLogon(m, 30, false, false)); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if resetCalled {
		t.Fatal("expected OnSeqNumsReset not to be invoked when ResetSeqNumFlag is not Y")
	}
}

func TestLoadOrCreateUUIDPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.id")

	first, err := LoadOrCreateUUID(path)
	if err != nil {
		t.Fatalf("LoadOrCreateUUID (create): %v", err)
	}
	second, err := LoadOrCreateUUID(path)
	if err != nil {
		t.Fatalf("LoadOrCreateUUID (load): %v", err)
	}
	if first != second {
		t.Fatalf("got different UUIDs across calls: %q != %q", first, second)
	}
}

func TestLoadOrCreateUUIDRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.id")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadOrCreateUUID(path); err == nil {
		t.Fatal("expected an error for an empty session-id file")
	}
}
