package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTerminal is returned when stdin is not attached to a terminal
	ErrNotTerminal = errors.New("not a terminal")

	// ErrClosed is returned once the input stream has ended
	ErrClosed = errors.New("terminal input closed")
)

// TerminalError reports a failed driver operation
type TerminalError struct {
	Op  string
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// WrapError returns nil for nil err, otherwise a *TerminalError for op.
// Errors that already are TerminalErrors are passed through unchanged
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TerminalError
	if errors.As(err, &te) {
		return err
	}
	return &TerminalError{Op: op, Err: err}
}
