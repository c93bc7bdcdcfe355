package pipeline

import (
	"context"

	"github.com/jcass77/WTFIX-sub000/message"
)

// Stage is one link in the processing pipeline. Stages are ordered
// low-to-high; inbound messages are offered to OnReceive in that order,
// outbound messages are offered to OnSend in the reverse order.
//
// A Stage returns (msg, nil) to pass a (possibly modified) message to the
// next stage, or a nil message with one of *StopProcessing, *ProcessingError,
// or *SessionFatal to signal the pipeline's error boundary. Any other
// non-nil error is treated as a *ProcessingError by the pipeline.
type Stage interface {
	// Name identifies the stage in logs and error messages.
	Name() string

	// Initialize performs setup that must complete before Start is called
	// on any stage (e.g. opening a database connection).
	Initialize(ctx context.Context) error

	// Start begins the stage's steady-state operation (e.g. spawning a
	// background goroutine). Called after every stage has Initialized.
	Start(ctx context.Context) error

	// Stop releases resources and halts any background work. Called in
	// reverse stage order during shutdown.
	Stop(ctx context.Context) error

	// OnReceive processes an inbound message.
	OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error)

	// OnSend processes an outbound message before it reaches the wire.
	OnSend(ctx context.Context, msg *message.Message) (*message.Message, error)
}

// BaseStage supplies no-op Initialize/Start/Stop/OnReceive/OnSend
// implementations so a concrete stage can embed it and override only the
// methods it cares about, the way the teacher's apps each override only
// on_receive or on_send and inherit the rest.
type BaseStage struct{}

func (BaseStage) Initialize(ctx context.Context) error { return nil }
func (BaseStage) Start(ctx context.Context) error       { return nil }
func (BaseStage) Stop(ctx context.Context) error        { return nil }

func (BaseStage) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return msg, nil
}

func (BaseStage) OnSend(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return msg, nil
}
