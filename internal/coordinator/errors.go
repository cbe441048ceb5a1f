package coordinator

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotStarted is returned by commands issued before StartSession completed
	ErrSessionNotStarted = errors.New("session not started")

	// ErrSessionAlreadyStarted is returned by a second StartSession call
	ErrSessionAlreadyStarted = errors.New("session already started")

	// ErrBusy is returned when a mutating command is already in flight
	ErrBusy = errors.New("another operation is in progress")

	// ErrEmptyRegistry is returned by CalculateTax when no document has been accepted
	ErrEmptyRegistry = errors.New("no documents have been uploaded")

	// ErrClosed is returned after the coordinator has been closed
	ErrClosed = errors.New("coordinator closed")

	// ErrHandleReleased is returned when reading a released artifact handle
	ErrHandleReleased = errors.New("artifact handle released")
)

// ValidationError reports missing or invalid input. No network call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// PreconditionError reports a command invoked in a state that does not satisfy its contract
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition failed: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// RemoteError reports a failed or malformed collaborator response, including
// input the collaborator rejected. StatusCode is zero when no response was
// received; Code carries the collaborator's error code when it sent one.
type RemoteError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote error (status %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: remote error: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NotFoundError reports a resource that does not exist
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func precondition(op string, err error) error {
	return &PreconditionError{Op: op, Err: err}
}

// asRemote leaves classified errors alone and wraps anything else as a RemoteError
func asRemote(op string, err error) error {
	var (
		re *RemoteError
		pe *PreconditionError
		ve *ValidationError
		nf *NotFoundError
	)
	if errors.As(err, &re) || errors.As(err, &pe) || errors.As(err, &ve) || errors.As(err, &nf) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// describe renders an error for a user-facing narrative
func describe(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		switch {
		case re.Message != "":
			return re.Message
		case re.Err != nil:
			return re.Err.Error()
		}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var pe *PreconditionError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}
