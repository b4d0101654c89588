// Package tcelldrv adapts a tcell screen to the terminal.Driver capability.
//
// tcell enters raw mode and the alternate screen together in Screen.Init and
// leaves both in Screen.Fini, so EnableRawMode/DisableRawMode carry the whole
// screen lifecycle and the alternate-screen calls only track state.
package tcelldrv

import (
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termtick/terminal"
)

// Driver implements terminal.Driver on top of tcell.Screen
type Driver struct {
	screen tcell.Screen

	mu        sync.Mutex
	active    bool
	altScreen bool
	mouse     bool
	cursor    bool

	events  chan tcell.Event
	quit    chan struct{}
	pumpEnd chan struct{}

	// pending holds an event observed by Poll and not yet consumed by ReadEvent
	pending *terminal.Event
	closed  bool
	conv    converter
}

var _ terminal.Driver = (*Driver)(nil)

// New creates a driver on the process terminal
func New() (*Driver, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, terminal.WrapError("open screen", err)
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen wraps an existing, uninitialized screen (simulation screens in tests)
func NewWithScreen(screen tcell.Screen) *Driver {
	return &Driver{
		screen: screen,
		events: make(chan tcell.Event, 64),
		cursor: true,
	}
}

// EnableRawMode initializes the screen and starts the event pump
func (d *Driver) EnableRawMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}
	if err := d.screen.Init(); err != nil {
		return terminal.WrapError("enable raw mode", err)
	}
	d.active = true
	d.closed = false
	d.pending = nil
	// tcell keeps the cursor hidden until ShowCursor places it
	d.cursor = false
	d.quit = make(chan struct{})
	d.pumpEnd = make(chan struct{})
	go d.pump(d.quit, d.pumpEnd)
	return nil
}

// pump moves tcell events into the driver channel until the screen finalizes
func (d *Driver) pump(quit <-chan struct{}, end chan<- struct{}) {
	defer close(end)
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case d.events <- ev:
		case <-quit:
			return
		}
	}
}

// DisableRawMode finalizes the screen, restoring the prior terminal state
func (d *Driver) DisableRawMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}
	close(d.quit)
	d.screen.Fini()
	<-d.pumpEnd

	d.active = false
	d.altScreen = false
	d.mouse = false
	d.cursor = true
	return nil
}

func (d *Driver) EnterAltScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.altScreen = d.active
	return nil
}

func (d *Driver) LeaveAltScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.altScreen = false
	return nil
}

func (d *Driver) EnableMouseCapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return terminal.WrapError("enable mouse capture", errNotActive)
	}
	d.screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	d.mouse = true
	return nil
}

func (d *Driver) DisableMouseCapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.screen.DisableMouse()
	}
	d.mouse = false
	return nil
}

func (d *Driver) ClearScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return terminal.WrapError("clear screen", errNotActive)
	}
	d.screen.Clear()
	d.screen.Show()
	return nil
}

// ShowCursor parks a visible cursor at the origin; after Fini tcell has already shown it
func (d *Driver) ShowCursor() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.screen.ShowCursor(0, 0)
		d.screen.Show()
	}
	d.cursor = true
	return nil
}

func (d *Driver) HideCursor() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.screen.HideCursor()
		d.screen.Show()
		d.cursor = false
	}
	return nil
}

// Poll waits at most timeout for an event the multiplexer can read.
// Poll and ReadEvent must be called from a single goroutine
func (d *Driver) Poll(timeout time.Duration) (bool, error) {
	if d.pending != nil {
		return true, nil
	}
	if d.closed {
		return false, terminal.WrapError("poll", terminal.ErrClosed)
	}

	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	} else {
		// Non-blocking check
		ch := make(chan time.Time)
		close(ch)
		expire = ch
	}

	select {
	case ev := <-d.events:
		converted := d.conv.convert(ev)
		d.pending = &converted
		return true, nil
	case <-d.pumpDone():
		d.closed = true
		return false, terminal.WrapError("poll", terminal.ErrClosed)
	case <-expire:
		// A zero timeout still prefers a buffered event
		select {
		case ev := <-d.events:
			converted := d.conv.convert(ev)
			d.pending = &converted
			return true, nil
		default:
			return false, nil
		}
	}
}

// ReadEvent returns the next event, blocking until one arrives
func (d *Driver) ReadEvent() (terminal.Event, error) {
	if d.pending != nil {
		ev := *d.pending
		d.pending = nil
		return ev, nil
	}
	if d.closed {
		return terminal.Event{}, terminal.WrapError("read", terminal.ErrClosed)
	}

	select {
	case ev := <-d.events:
		return d.conv.convert(ev), nil
	case <-d.pumpDone():
		d.closed = true
		return terminal.Event{}, terminal.WrapError("read", terminal.ErrClosed)
	}
}

// pumpDone returns the channel closed when the event pump exits, nil before EnableRawMode
func (d *Driver) pumpDone() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pumpEnd
}

// Surface returns the screen as a drawing surface
func (d *Driver) Surface() terminal.Surface {
	return (*surface)(d)
}

// State reports tracked mode flags
func (d *Driver) State() terminal.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return terminal.State{
		Raw:           d.active,
		AltScreen:     d.altScreen,
		Mouse:         d.mouse,
		CursorVisible: d.cursor,
	}
}

// surface draws through tcell cells
type surface Driver

func (s *surface) Size() (int, int) {
	return s.screen.Size()
}

// Draw strips SGR styling (tcell styles cells, not byte streams) and places runes by display width
func (s *surface) Draw(x, y int, text string) {
	plain := ansi.Strip(text)
	w, h := s.screen.Size()
	if y < 0 || y >= h {
		return
	}
	for _, r := range plain {
		if x >= w {
			return
		}
		if x >= 0 {
			s.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		}
		x += runewidth.RuneWidth(r)
	}
}

func (s *surface) Flush() error {
	s.screen.Show()
	return nil
}
