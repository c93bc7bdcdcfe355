// Package session implements the logon/logout handshake state machine: the
// pipeline stage that establishes a FIX session, validates the
// counterparty's Logon acknowledgement, and coordinates a clean Logout on
// shutdown.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
)

// State is one node of the session's logon/logout state machine.
type State int

const (
	Disconnected State = iota
	Connecting
	LogonSent
	LoggedIn
	LoggingOut
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case LogonSent:
		return "LogonSent"
	case LoggedIn:
		return "LoggedIn"
	case LoggingOut:
		return "LoggingOut"
	default:
		return "Unknown"
	}
}

// LogonMismatchError reports that the counterparty's Logon acknowledgement
// doesn't echo the session parameters this side sent.
type LogonMismatchError struct {
	Reason string
}

func (e *LogonMismatchError) Error() string {
	return fmt.Sprintf("logon mismatch: %s", e.Reason)
}

// Sender delivers msg through the full pipeline send path (stamping,
// archival, encoding, transport write).
type Sender func(ctx context.Context, msg *message.Message) error

// Manager is the pipeline.Stage driving the session's logon/logout
// handshake.
type Manager struct {
	pipeline.BaseStage

	Identity *Identity

	HeartBtInt   int
	Username     string
	Password     string
	ResetSeqNums bool
	TestMode     bool

	// HandshakeTimeout bounds how long Start waits for the counterparty's
	// Logon acknowledgement, and Stop waits for its Logout acknowledgement.
	HandshakeTimeout time.Duration

	// OnSeqNumsReset, if set, is called once a Logon acknowledgement
	// negotiating ResetSeqNumFlag=Y has been accepted, before the manager
	// transitions to LoggedIn. It is the hook that resets the sequence
	// layer's counters back to 1 to match the newly agreed session state.
	OnSeqNumsReset func()

	send   Sender
	logger *log.Logger

	mu        sync.Mutex
	state     State
	loggedIn  chan struct{}
	loggedOut chan struct{}
}

// NewManager constructs a session Manager in the Disconnected state.
func NewManager(identity *Identity, heartBtInt int, username, password string, resetSeqNums, testMode bool, send Sender, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		Identity:         identity,
		HeartBtInt:       heartBtInt,
		Username:         username,
		Password:         password,
		ResetSeqNums:     resetSeqNums,
		TestMode:         testMode,
		HandshakeTimeout: 10 * time.Second,
		send:             send,
		logger:           logger,
		state:            Disconnected,
		loggedIn:         make(chan struct{}),
		loggedOut:        make(chan struct{}),
	}
}

func (m *Manager) Name() string { return "session" }

// State returns the manager's current state machine node.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Start sends the Logon message and blocks until either the counterparty's
// acknowledgement arrives (via OnReceive) or HandshakeTimeout elapses.
func (m *Manager) Start(ctx context.Context) error {
	m.setState(Connecting)

	logon := message.New(dictionary.MsgTypeLogon)
	logon.Set(field.New(message.TagSenderCompID, m.Identity.SenderCompID))
	logon.Set(field.New(message.TagTargetCompID, m.Identity.TargetCompID))
	logon.Set(field.NewInt(98, 0)) // EncryptMethod
	logon.Set(field.NewInt(108, m.HeartBtInt))
	logon.Set(field.New(553, m.Username))
	logon.Set(field.New(554, m.Password))
	logon.Set(field.NewBool(141, m.ResetSeqNums)) // ResetSeqNumFlag
	if m.TestMode {
		logon.Set(field.NewBool(464, true)) // TestMessageIndicator
	}

	m.logger.Printf("session: logging in as %s -> %s...", m.Identity.SenderCompID, m.Identity.TargetCompID)
	m.setState(LogonSent)
	if err := m.send(ctx, logon); err != nil {
		return fmt.Errorf("session: send logon: %w", err)
	}

	select {
	case <-m.loggedIn:
		m.logger.Printf("session: logged in")
		return nil
	case <-time.After(m.HandshakeTimeout):
		return fmt.Errorf("session: timed out waiting for logon acknowledgement")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop sends a Logout and waits (bounded) for the counterparty's Logout
// acknowledgement before returning.
func (m *Manager) Stop(ctx context.Context) error {
	if m.State() != LoggedIn {
		return nil
	}
	m.setState(LoggingOut)

	logout := message.New(dictionary.MsgTypeLogout)
	logout.Set(field.New(message.TagSenderCompID, m.Identity.SenderCompID))
	logout.Set(field.New(message.TagTargetCompID, m.Identity.TargetCompID))

	m.logger.Printf("session: logging out...")
	if err := m.send(ctx, logout); err != nil {
		return fmt.Errorf("session: send logout: %w", err)
	}

	select {
	case <-m.loggedOut:
		m.logger.Printf("session: logout completed")
	case <-time.After(m.HandshakeTimeout):
		m.logger.Printf("session: timed out waiting for logout acknowledgement")
	}
	m.setState(Disconnected)
	return nil
}

// OnReceive dispatches Logon and Logout acknowledgements to their handlers;
// every other message type passes through unchanged.
func (m *Manager) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	switch msg.Type() {
	case dictionary.MsgTypeLogon:
		return m.onLogon(msg)
	case dictionary.MsgTypeLogout:
		return m.onLogout(msg)
	default:
		return msg, nil
	}
}

func (m *Manager) onLogon(msg *message.Message) (*message.Message, error) {
	heartBtIntField, err := msg.Get(108)
	if err != nil {
		return nil, &pipeline.SessionFatal{Err: &LogonMismatchError{Reason: "missing HeartBtInt (108)"}}
	}
	heartBtInt, ok := heartBtIntField.Int()
	if !ok || heartBtInt != m.HeartBtInt {
		return nil, &pipeline.SessionFatal{Err: &LogonMismatchError{
			Reason: fmt.Sprintf("HeartBtInt %v does not match logon value %d", heartBtIntField.String(), m.HeartBtInt)}}
	}

	testMode := false
	if f, err := msg.Get(464); err == nil {
		testMode, _ = f.Bool()
	}
	if testMode != m.TestMode {
		return nil, &pipeline.SessionFatal{Err: &LogonMismatchError{
			Reason: fmt.Sprintf("TestMessageIndicator %v does not match logon value %v", testMode, m.TestMode)}}
	}

	resetSeqNums := false
	if f, err := msg.Get(141); err == nil {
		resetSeqNums, _ = f.Bool()
	}
	if resetSeqNums != m.ResetSeqNums {
		return nil, &pipeline.SessionFatal{Err: &LogonMismatchError{
			Reason: fmt.Sprintf("ResetSeqNumFlag %v does not match logon value %v", resetSeqNums, m.ResetSeqNums)}}
	}

	if resetSeqNums && m.OnSeqNumsReset != nil {
		m.OnSeqNumsReset()
	}

	m.setState(LoggedIn)
	close(m.loggedIn)
	return msg, nil
}

func (m *Manager) onLogout(msg *message.Message) (*message.Message, error) {
	m.setState(Disconnected)
	select {
	case <-m.loggedOut:
		// already closed (e.g. Stop already observed it)
	default:
		close(m.loggedOut)
	}
	return nil, &pipeline.StopProcessing{Reason: "logout received"}
}
