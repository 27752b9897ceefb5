package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned for a call to a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when tool arguments do not decode or a
	// required argument is missing.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// TerminateError is raised by a tool to abort the whole scan on purpose.
// It is never retried and never reported back to the model.
type TerminateError struct {
	Message string
	Cause   string
}

func (e *TerminateError) Error() string {
	if e.Cause == "" {
		return "terminated by request: " + e.Message
	}
	return fmt.Sprintf("terminated by request: %s (cause: %s)", e.Message, e.Cause)
}

// IsTerminate reports whether err carries a TerminateError.
func IsTerminate(err error) bool {
	var t *TerminateError
	return errors.As(err, &t)
}
