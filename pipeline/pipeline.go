// Package pipeline dispatches inbound and outbound FIX messages through an
// ordered list of processing stages, enforcing the three-tier error
// boundary (benign stop, recoverable processing error, fatal session
// teardown) that every stage operates under.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/wire"
)

// Default phase timeouts, per stage, during startup/shutdown.
const (
	DefaultInitTimeout  = 10 * time.Second
	DefaultStartTimeout = 10 * time.Second
	DefaultStopTimeout  = 5 * time.Second
)

// Sender writes an encoded, wire-ready message out. It is the pipeline's
// only escape hatch to the transport layer, kept as a function value rather
// than a transport.Transport dependency so the pipeline package does not
// need to import transport.
type Sender func(data []byte) error

// Pipeline owns the ordered stage list and the error boundary between
// stages.
type Pipeline struct {
	stages []Stage
	send   Sender
	logger *log.Logger

	// sendMu serializes Send end to end, from the first stage's stamping
	// through encoding to the final socket write. Send is called both from
	// application goroutines (the REPL) and synchronously from within
	// Receive (a heartbeat reply to a TestRequest), so two sends can
	// legitimately be in flight on different goroutines at once; without
	// this they could interleave their writes at the socket boundary.
	sendMu sync.Mutex

	InitTimeout  time.Duration
	StartTimeout time.Duration
	StopTimeout  time.Duration
}

// New constructs a Pipeline from stages, in low-to-high order.
func New(stages []Stage, send Sender, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		stages:       stages,
		send:         send,
		logger:       logger,
		InitTimeout:  DefaultInitTimeout,
		StartTimeout: DefaultStartTimeout,
		StopTimeout:  DefaultStopTimeout,
	}
}

// Initialize runs Initialize on every stage, low to high, each bounded by
// InitTimeout. A stage exceeding its timeout, or returning an error, is
// fatal.
func (p *Pipeline) Initialize(ctx context.Context) error {
	for _, s := range p.stages {
		if err := p.runBounded(ctx, s.Name(), p.InitTimeout, s.Initialize); err != nil {
			return fmt.Errorf("pipeline: initialize stage %q: %w", s.Name(), err)
		}
	}
	return nil
}

// Start runs Start on every stage, low to high, each bounded by
// StartTimeout.
func (p *Pipeline) Start(ctx context.Context) error {
	for _, s := range p.stages {
		if err := p.runBounded(ctx, s.Name(), p.StartTimeout, s.Start); err != nil {
			return fmt.Errorf("pipeline: start stage %q: %w", s.Name(), err)
		}
	}
	return nil
}

// Stop runs Stop on every stage, high to low, each bounded by StopTimeout.
// A timed-out or failing stage is logged and shutdown continues with the
// remaining stages - teardown must not get stuck on one misbehaving stage.
func (p *Pipeline) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if err := p.runBounded(ctx, s.Name(), p.StopTimeout, s.Stop); err != nil {
			p.logger.Printf("pipeline: stop stage %q: %v", s.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *Pipeline) runBounded(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(bounded) }()

	select {
	case err := <-done:
		return err
	case <-bounded.Done():
		return fmt.Errorf("stage %q exceeded its %s timeout", name, timeout)
	}
}

// Receive decodes a raw, SOH-delimited frame and dispatches it through every
// stage's OnReceive, low to high, stopping at the first stage that signals
// StopProcessing, ProcessingError, or SessionFatal.
func (p *Pipeline) Receive(ctx context.Context, raw []byte) error {
	msg, err := wire.Decode(raw)
	if err != nil {
		p.logger.Printf("pipeline: decode error: %v", err)
		return nil // a malformed frame is dropped, not fatal
	}

	for _, s := range p.stages {
		msg, err = s.OnReceive(ctx, msg)
		if err == nil {
			continue
		}

		var stop *StopProcessing
		if errors.As(err, &stop) {
			p.logger.Printf("pipeline: %s: %v", s.Name(), stop)
			return nil
		}

		var fatal *SessionFatal
		if errors.As(err, &fatal) {
			p.logger.Printf("pipeline: fatal error at stage %q: %v", s.Name(), fatal)
			_ = p.Stop(ctx)
			return fatal
		}

		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			procErr = &ProcessingError{Stage: s.Name(), Err: err}
		}
		p.logger.Printf("pipeline: %v", procErr)
		return nil
	}

	return nil
}

// Send dispatches msg through every stage's OnSend, high to low, then
// encodes and writes the result via the configured Sender.
func (p *Pipeline) Send(ctx context.Context, msg *message.Message) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	var err error
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		msg, err = s.OnSend(ctx, msg)
		if err == nil {
			continue
		}

		var stop *StopProcessing
		if errors.As(err, &stop) {
			p.logger.Printf("pipeline: %s: %v", s.Name(), stop)
			return nil
		}

		var fatal *SessionFatal
		if errors.As(err, &fatal) {
			p.logger.Printf("pipeline: fatal error at stage %q: %v", s.Name(), fatal)
			_ = p.Stop(ctx)
			return fatal
		}

		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			procErr = &ProcessingError{Stage: s.Name(), Err: err}
		}
		p.logger.Printf("pipeline: %v", procErr)
		return procErr
	}

	raw, err := wire.Encode(msg)
	if err != nil {
		return &ProcessingError{Stage: "wire", Err: err}
	}
	if err := p.send(raw); err != nil {
		return &SessionFatal{Reason: "transport write failed", Err: err}
	}
	return nil
}
