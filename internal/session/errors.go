package session

import "errors"

// ResourceAcquisitionError reports a capture or output resource that could
// not be acquired. It is fatal to the session.
type ResourceAcquisitionError struct {
	Resource string // "capture" or "output"
	Err      error
}

func (e *ResourceAcquisitionError) Error() string {
	if e.Err == nil {
		return "failed to acquire " + e.Resource + " resource"
	}

	return "failed to acquire " + e.Resource + " resource: " + e.Err.Error()
}

func (e *ResourceAcquisitionError) Unwrap() error { return e.Err }

// ErrSessionTerminal is returned when an operation is attempted on a
// session that has already reached Error or Closed.
var ErrSessionTerminal = errors.New("session already ended")
