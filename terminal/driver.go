package terminal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// Options configures an ANSIDriver
type Options struct {
	// Backend performs the platform I/O, defaults to stdin/stdout
	Backend Backend

	// MouseMode selects reported mouse events when capture is enabled, defaults to click+drag
	MouseMode MouseMode

	// Now is the clock used for poll deadlines, defaults to time.Now
	Now func() time.Time
}

// ANSIDriver implements Driver with direct ANSI sequences over a Backend
type ANSIDriver struct {
	backend   Backend
	mouseMode MouseMode
	now       func() time.Time

	// inMu serializes the reading side (Poll/ReadEvent) with resize delivery
	inMu sync.Mutex
	dec  *decoder
	eof  bool

	// partialSince marks when the decoder started holding an incomplete sequence
	partialSince time.Time

	// Mode state, mutated only through Controller calls
	raw           bool
	altScreen     bool
	mouse         bool
	cursorVisible bool

	surface *ansiSurface
}

var _ Driver = (*ANSIDriver)(nil)

// New creates a driver on the process terminal with default options
func New() *ANSIDriver {
	return NewANSI(Options{})
}

// NewANSI creates a driver from opts
func NewANSI(opts Options) *ANSIDriver {
	if opts.Backend == nil {
		opts.Backend = NewBackend()
	}
	if opts.MouseMode == MouseModeNone {
		opts.MouseMode = MouseModeClick | MouseModeDrag
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &ANSIDriver{
		backend:       opts.Backend,
		mouseMode:     opts.MouseMode,
		now:           opts.Now,
		dec:           newDecoder(),
		cursorVisible: true,
	}
	d.surface = newANSISurface(opts.Backend)
	return d
}

// EnableRawMode switches input to raw mode and starts resize tracking
func (d *ANSIDriver) EnableRawMode() error {
	if err := d.backend.MakeRaw(); err != nil {
		return WrapError("enable raw mode", err)
	}
	d.raw = true

	d.backend.SetResizeHandler(func(w, h int) {
		d.inMu.Lock()
		d.dec.push(Event{Type: EventResize, Width: w, Height: h})
		d.inMu.Unlock()
	})
	return nil
}

// DisableRawMode stops resize tracking and restores the saved line discipline
func (d *ANSIDriver) DisableRawMode() error {
	d.backend.SetResizeHandler(nil)
	if err := d.backend.Restore(); err != nil {
		return WrapError("disable raw mode", err)
	}
	d.raw = false
	return nil
}

func (d *ANSIDriver) EnterAltScreen() error {
	if err := d.backend.Write(csiAltScreenEnter); err != nil {
		return WrapError("enter alternate screen", err)
	}
	d.altScreen = true
	return nil
}

func (d *ANSIDriver) LeaveAltScreen() error {
	if err := d.backend.Write(csiAltScreenExit); err != nil {
		return WrapError("leave alternate screen", err)
	}
	d.altScreen = false
	return nil
}

func (d *ANSIDriver) EnableMouseCapture() error {
	if err := d.backend.Write(mouseOnSequence(d.mouseMode)); err != nil {
		return WrapError("enable mouse capture", err)
	}
	d.mouse = true
	return nil
}

func (d *ANSIDriver) DisableMouseCapture() error {
	if err := d.backend.Write(mouseOffSequence()); err != nil {
		return WrapError("disable mouse capture", err)
	}
	d.mouse = false
	return nil
}

func (d *ANSIDriver) ClearScreen() error {
	if err := d.backend.Write(csiClear); err != nil {
		return WrapError("clear screen", err)
	}
	return nil
}

func (d *ANSIDriver) ShowCursor() error {
	if err := d.backend.Write(csiCursorShow); err != nil {
		return WrapError("show cursor", err)
	}
	d.cursorVisible = true
	return nil
}

func (d *ANSIDriver) HideCursor() error {
	if err := d.backend.Write(csiCursorHide); err != nil {
		return WrapError("hide cursor", err)
	}
	d.cursorVisible = false
	return nil
}

// Poll reports whether ReadEvent can return without blocking, waiting at most timeout.
// Already-decoded events are reported immediately; a buffered escape prefix resolves to
// KeyEscape once escapeTimeout passes without a continuation
func (d *ANSIDriver) Poll(timeout time.Duration) (bool, error) {
	if timeout < 0 {
		timeout = 0
	}

	d.inMu.Lock()
	defer d.inMu.Unlock()

	deadline := d.now().Add(timeout)
	for {
		if d.dec.pending() > 0 {
			return true, nil
		}
		if d.eof {
			return false, WrapError("poll", ErrClosed)
		}

		now := d.now()
		remaining := deadline.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		wait := remaining
		escapeWait := false

		if d.dec.partial() {
			if d.partialSince.IsZero() {
				d.partialSince = now
			}
			held := now.Sub(d.partialSince)
			if held >= escapeTimeout {
				d.dec.flushEscape()
				d.partialSince = time.Time{}
				continue
			}
			if left := escapeTimeout - held; left <= wait {
				wait = left
				escapeWait = true
			}
		}

		// Release the lock while blocked so resize delivery is not held up
		d.inMu.Unlock()
		data, err := d.backend.Read(wait)
		d.inMu.Lock()

		switch {
		case errors.Is(err, io.EOF):
			d.eof = true
			d.dec.flushEscape()
			continue
		case err != nil:
			return false, WrapError("poll", err)
		case len(data) > 0:
			d.dec.feed(data)
			if !d.dec.partial() {
				d.partialSince = time.Time{}
			}
			continue
		}

		if escapeWait {
			continue
		}
		if remaining == 0 || !d.now().Before(deadline) {
			return d.dec.pending() > 0, nil
		}
	}
}

// ReadEvent returns the next event, blocking until input arrives
func (d *ANSIDriver) ReadEvent() (Event, error) {
	for {
		ready, err := d.Poll(100 * time.Millisecond)
		if err != nil {
			return Event{}, WrapError("read", err)
		}
		if !ready {
			continue
		}

		d.inMu.Lock()
		ev, ok := d.dec.next()
		d.inMu.Unlock()
		if ok {
			return ev, nil
		}
	}
}

// Surface returns the display handle
func (d *ANSIDriver) Surface() Surface {
	return d.surface
}

// State reports the mode flags last set through the Controller methods
func (d *ANSIDriver) State() State {
	return State{
		Raw:           d.raw,
		AltScreen:     d.altScreen,
		Mouse:         d.mouse,
		CursorVisible: d.cursorVisible,
	}
}

// State is a snapshot of terminal mode flags
type State struct {
	Raw           bool
	AltScreen     bool
	Mouse         bool
	CursorVisible bool
}

// ansiSurface buffers positioned text and writes it in one backend call
type ansiSurface struct {
	mu      sync.Mutex
	backend Backend
	buf     bytes.Buffer
	w       *bufio.Writer
}

func newANSISurface(b Backend) *ansiSurface {
	s := &ansiSurface{backend: b}
	s.w = bufio.NewWriter(&s.buf)
	return s
}

func (s *ansiSurface) Size() (int, int) {
	return s.backend.Size()
}

func (s *ansiSurface) Draw(x, y int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x < 0 || y < 0 {
		return
	}
	writeCursorPos(s.w, x, y)
	s.w.WriteString(text)
	s.w.Write(csiSGR0)
}

func (s *ansiSurface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	if s.buf.Len() == 0 {
		return nil
	}
	err := s.backend.Write(s.buf.Bytes())
	s.buf.Reset()
	return WrapError("flush", err)
}
