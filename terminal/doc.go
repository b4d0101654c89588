// Package terminal is the terminal driver consumed by the session guard and the
// event multiplexer.
//
// Features:
//   - Raw mode via termios save/restore (golang.org/x/term)
//   - Alternate screen, SGR mouse reporting and cursor control via direct ANSI sequences
//   - Bounded-wait input polling on stdin (poll(2)) with escape-sequence decoding
//   - SIGWINCH resize detection
//   - EmergencyReset for crash paths that cannot reach a live driver
//
// The package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
