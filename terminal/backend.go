package terminal

import "time"

// Backend abstracts platform-specific terminal I/O so drivers can run against a
// real tty or an in-memory fake
type Backend interface {
	// MakeRaw saves the current line discipline and switches input to raw mode
	MakeRaw() error

	// Restore reinstates the state saved by MakeRaw; no-op if MakeRaw was not called
	Restore() error

	// Size returns current terminal dimensions
	Size() (width, height int)

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Read waits at most timeout for input. Returns nil data on timeout and
	// io.EOF once input is closed
	Read(timeout time.Duration) ([]byte, error)

	// SetResizeHandler registers a callback for terminal resize events, nil stops delivery
	SetResizeHandler(handler func(width, height int))
}
