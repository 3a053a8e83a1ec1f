package command

import (
	"errors"
	"fmt"
)

// Domain errors for the command package.
var (
	// ErrMissingCredentials is returned when a command is sent before an API
	// session is attached. No network attempt is made.
	ErrMissingCredentials = errors.New("command: missing credentials")

	// ErrTransmission is matched by every *TransmissionError.
	ErrTransmission = errors.New("command: transmission failed")

	// ErrUnknownCategory is returned when selecting a category that is not a sibling.
	ErrUnknownCategory = errors.New("command: unknown category")

	// ErrUnknownCommand is returned when a catalog has no command of that name.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrDetached is returned when switching category on a command that does
	// not belong to a catalog.
	ErrDetached = errors.New("command: not attached to a catalog")
)

// TransmissionError reports a send that reached the transport but did not
// succeed: either the transport failed or the remote returned a non-success
// result code.
type TransmissionError struct {
	Command    string
	ResultCode string
	Err        error
}

// Error implements the error interface.
func (e *TransmissionError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("command %s: transmission failed: %v", e.Command, e.Err)
	case e.ResultCode != "":
		return fmt.Sprintf("command %s: remote result code %s", e.Command, e.ResultCode)
	default:
		return fmt.Sprintf("command %s: transmission failed", e.Command)
	}
}

// Unwrap returns the transport error, if any.
func (e *TransmissionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransmission.
func (e *TransmissionError) Is(target error) bool { return target == ErrTransmission }
