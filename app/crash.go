package app

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/lixenwraith/termtick/terminal"
)

// HandleCrash resets the terminal, prints r and its stack to stderr and exits
// Use as: defer func() { app.HandleCrash(recover()) }()
func HandleCrash(r any) {
	if r == nil {
		return
	}
	writeCrash(os.Stdout, os.Stderr, r, debug.Stack())
	os.Exit(1)
}

// writeCrash resets tty, then reports to errOut with CRLF line ends so the
// report reads correctly even if raw mode survived the reset
func writeCrash(tty, errOut io.Writer, r any, stack []byte) {
	terminal.EmergencyReset(tty)
	fmt.Fprintf(errOut, "\r\n\x1b[31mTERMTICK CRASHED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(errOut, "Stack Trace:\r\n%s\r\n", stack)
}
