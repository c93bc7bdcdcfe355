// Package sequence implements outbound sequence stamping and inbound gap
// detection/resend handling: the pipeline stage that keeps both sides of a
// FIX session agreeing on message sequence numbers.
package sequence

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
	"github.com/jcass77/WTFIX-sub000/store"
)

// UnexpectedSeqNumError reports an inbound sequence number lower than
// expected without PossDupFlag set - a genuine protocol violation.
type UnexpectedSeqNumError struct {
	Expected int
	Got      int
}

func (e *UnexpectedSeqNumError) Error() string {
	return fmt.Sprintf("unexpected seq num: expected %d, got %d without PossDupFlag", e.Expected, e.Got)
}

// Manager is the pipeline.Stage that stamps outbound MsgSeqNum, detects
// inbound gaps, requests resends, and answers the counterparty's own
// ResendRequests out of the message store.
type Manager struct {
	pipeline.BaseStage

	mu          sync.Mutex
	sendSeqNum  int
	recvSeqNum  int

	sessionID  string
	senderID   string
	targetID   string

	store  store.Store
	sender Sender
	logger *log.Logger
}

// Sender is the callback the Manager uses to emit a ResendRequest,
// SequenceReset-GapFill, or resent application message. These are already
// fully sequenced by the Manager itself before being handed to Sender, which
// is expected to encode and write them directly to the transport rather
// than re-entering the pipeline's normal OnSend chain (that would hand the
// message back to this same Manager for stamping, double-counting the
// sequence number).
type Sender func(ctx context.Context, msg *message.Message) error

// NewManager constructs a Manager starting both sequence counters at 1.
func NewManager(sessionID, senderID, targetID string, st store.Store, sender Sender, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		sendSeqNum: 1,
		recvSeqNum: 1,
		sessionID:  sessionID,
		senderID:   senderID,
		targetID:   targetID,
		store:      st,
		sender:     sender,
		logger:     logger,
	}
}

func (m *Manager) Name() string { return "sequence" }

// ResetSendSeqNum overrides the next outbound sequence number, for a
// ResetSeqNumFlag=Y logon.
func (m *Manager) ResetSendSeqNum(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendSeqNum = n
}

// ResetRecvSeqNum overrides the next expected inbound sequence number.
func (m *Manager) ResetRecvSeqNum(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recvSeqNum = n
}

// NextSendSeqNum returns the sequence number that will be stamped on the
// next outbound message, without consuming it.
func (m *Manager) NextSendSeqNum() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendSeqNum
}

// OnSend stamps msg with the next outbound sequence number, increments the
// counter, and archives the now-correctly-numbered message so it can be
// replayed later in response to a ResendRequest.
func (m *Manager) OnSend(ctx context.Context, msg *message.Message) (*message.Message, error) {
	m.mu.Lock()
	seqNum := m.sendSeqNum
	m.sendSeqNum++
	m.mu.Unlock()

	msg.SetSeqNum(seqNum)
	m.archive(ctx, m.senderID, msg)
	return msg, nil
}

// archive stores msg in the message store under originator, logging rather
// than failing the send/receive on a storage error: a failed archive must
// not block traffic, it only degrades this side's ability to answer a
// future resend request.
func (m *Manager) archive(ctx context.Context, originator string, msg *message.Message) {
	if m.store == nil {
		return
	}
	if err := m.store.Set(ctx, m.sessionID, originator, msg); err != nil {
		seqNum, _ := msg.SeqNum()
		m.logger.Printf("sequence: failed to archive seq %d for %q: %v", seqNum, originator, err)
	}
}

// OnReceive implements the gap-detection state machine described in the
// sequence manager's contract: accept in-order messages, request a resend
// for a gap, and silently absorb a PossDup'd replay of an already-seen
// sequence number.
func (m *Manager) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	seqNum, ok := msg.SeqNum()
	if !ok {
		return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: fmt.Errorf("message has no MsgSeqNum (34)")}
	}

	m.mu.Lock()
	expected := m.recvSeqNum
	m.mu.Unlock()

	switch {
	case seqNum == expected:
		m.mu.Lock()
		m.recvSeqNum = expected + 1
		m.mu.Unlock()
		m.archive(ctx, m.targetID, msg)
		if msg.Type() == dictionary.MsgTypeResendRequest {
			beginField, _ := msg.Get(7) // BeginSeqNo
			endField, _ := msg.Get(16)  // EndSeqNo
			begin, _ := beginField.Int()
			end, _ := endField.Int()
			if err := m.HandleResendRequest(ctx, begin, end); err != nil {
				return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: err}
			}
		}
		return msg, nil

	case seqNum > expected:
		if err := m.requestResend(ctx, expected, seqNum-1); err != nil {
			return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: err}
		}
		return nil, &pipeline.StopProcessing{Reason: fmt.Sprintf("gap detected: expected %d, got %d", expected, seqNum)}

	default: // seqNum < expected
		if msg.IsPossDup() {
			return nil, &pipeline.StopProcessing{Reason: fmt.Sprintf("duplicate of already-processed seq %d", seqNum)}
		}
		return nil, &pipeline.SessionFatal{Err: &UnexpectedSeqNumError{Expected: expected, Got: seqNum}}
	}
}

func (m *Manager) requestResend(ctx context.Context, from, to int) error {
	req := message.New(dictionary.MsgTypeResendRequest)
	req.Set(field.New(message.TagSenderCompID, m.senderID))
	req.Set(field.New(message.TagTargetCompID, m.targetID))
	req.Set(field.NewInt(7, from))
	req.Set(field.NewInt(16, to))

	m.mu.Lock()
	req.SetSeqNum(m.sendSeqNum)
	m.sendSeqNum++
	m.mu.Unlock()

	return m.sender(ctx, req)
}

// HandleResendRequest answers an inbound ResendRequest(begin, end) by
// replaying archived outbound messages: application messages verbatim with
// PossDupFlag=Y, and runs of administrative messages coalesced into a
// single SequenceReset-GapFill.
func (m *Manager) HandleResendRequest(ctx context.Context, begin, end int) error {
	m.mu.Lock()
	currentSend := m.sendSeqNum
	m.mu.Unlock()

	if begin == 0 && end == 0 {
		begin = 1
		end = currentSend - 1
	} else if end == 0 {
		end = currentSend - 1
	}

	runStart := 0
	flushGapFill := func(upTo int) error {
		if runStart == 0 {
			return nil
		}
		return m.sendGapFill(ctx, runStart, upTo)
	}

	for seq := begin; seq <= end; seq++ {
		msg, ok, err := m.store.Get(ctx, m.sessionID, m.senderID, seq)
		if err != nil {
			return fmt.Errorf("sequence: resend lookup seq %d: %w", seq, err)
		}
		if !ok {
			// Nothing archived for this seq (e.g. a gap in our own history);
			// treat as an admin gap so the run keeps coalescing.
			if runStart == 0 {
				runStart = seq
			}
			continue
		}

		if dictionary.IsAdmin(msg.Type()) {
			if runStart == 0 {
				runStart = seq
			}
			continue
		}

		// Application message: flush any pending admin run as a GapFill
		// whose NewSeqNo is this seq, then resend verbatim.
		if err := flushGapFill(seq); err != nil {
			return err
		}
		runStart = 0

		sendingTime, _ := msg.Get(message.TagSendingTime)
		msg.Set(field.NewBool(message.TagPossDupFlag, true))
		msg.Set(field.New(message.TagOrigSendingTime, sendingTime.String()))
		if err := m.sender(ctx, msg); err != nil {
			return fmt.Errorf("sequence: resend seq %d: %w", seq, err)
		}
	}

	// Flush a trailing admin run that extends to the end of the range.
	if runStart != 0 {
		if err := m.sendGapFill(ctx, runStart, end+1); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) sendGapFill(ctx context.Context, fromSeq, newSeqNo int) error {
	reset := message.New(dictionary.MsgTypeSequenceReset)
	reset.Set(field.New(message.TagSenderCompID, m.senderID))
	reset.Set(field.New(message.TagTargetCompID, m.targetID))
	reset.SetSeqNum(fromSeq)
	reset.Set(field.NewBool(message.TagPossDupFlag, true))
	reset.Set(field.NewBool(123, true)) // GapFillFlag
	reset.Set(field.NewInt(36, newSeqNo)) // NewSeqNo
	return m.sender(ctx, reset)
}
