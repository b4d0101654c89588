package terminal

import (
	"bufio"
)

// Pre-allocated ANSI sequences
var (
	csiClear = []byte("\x1b[2J\x1b[H")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)
	csiSGR0  = []byte("\x1b[0m")

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")
	csiCursorPos  = []byte("\x1b[") // followed by row;colH

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")

	// Mouse reporting: SGR encoding (1006) plus click (1000), drag (1002), motion (1003)
	csiMouseSGROn     = []byte("\x1b[?1006h")
	csiMouseSGROff    = []byte("\x1b[?1006l")
	csiMouseClickOn   = []byte("\x1b[?1000h")
	csiMouseClickOff  = []byte("\x1b[?1000l")
	csiMouseDragOn    = []byte("\x1b[?1002h")
	csiMouseDragOff   = []byte("\x1b[?1002l")
	csiMouseMotionOn  = []byte("\x1b[?1003h")
	csiMouseMotionOff = []byte("\x1b[?1003l")
)

// writeInt writes an integer without allocation
// Optimized for terminal values (0-999 typical max)
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		w.WriteByte(byte(n/10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

// writeCursorPos writes cursor positioning sequence (0-indexed input)
func writeCursorPos(w *bufio.Writer, x, y int) {
	w.Write(csiCursorPos)
	writeInt(w, y+1)
	w.WriteByte(';')
	writeInt(w, x+1)
	w.WriteByte('H')
}

// mouseOnSequence returns the enable sequence for mode, SGR encoding first
func mouseOnSequence(mode MouseMode) []byte {
	if mode == MouseModeNone {
		return nil
	}
	seq := append([]byte(nil), csiMouseSGROn...)
	if mode&MouseModeClick != 0 {
		seq = append(seq, csiMouseClickOn...)
	}
	if mode&MouseModeDrag != 0 {
		seq = append(seq, csiMouseDragOn...)
	}
	if mode&MouseModeMotion != 0 {
		seq = append(seq, csiMouseMotionOn...)
	}
	return seq
}

// mouseOffSequence disables every reporting mode, reverse order of enable
func mouseOffSequence() []byte {
	seq := make([]byte, 0, 40)
	seq = append(seq, csiMouseMotionOff...)
	seq = append(seq, csiMouseDragOff...)
	seq = append(seq, csiMouseClickOff...)
	seq = append(seq, csiMouseSGROff...)
	return seq
}
