package pipeline

import "fmt"

// StopProcessing is a benign signal: the message has been handled (e.g.
// absorbed as a duplicate, or held back pending a gap fill) and propagation
// through the remaining stages should stop without being treated as a
// failure.
type StopProcessing struct {
	Reason string
}

func (e *StopProcessing) Error() string {
	return fmt.Sprintf("processing stopped: %s", e.Reason)
}

// ProcessingError is a recoverable failure: the message is dropped, an error
// is logged, but the session continues processing further messages.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error at stage %q: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// SessionFatal tears down the entire pipeline: it is logged, the pipeline's
// Stop is invoked, and the error propagates to the caller so the process can
// exit non-zero.
type SessionFatal struct {
	Reason string
	Err    error
}

func (e *SessionFatal) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session fatal: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("session fatal: %s", e.Reason)
}

func (e *SessionFatal) Unwrap() error { return e.Err }
