// Package termtest provides a scripted in-memory terminal driver for tests.
package termtest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/termtick/terminal"
)

// ErrHorizon is returned by Poll and ReadEvent once the clock reaches the script horizon
var ErrHorizon = errors.New("termtest: script horizon reached")

// Clock drives the fake's notion of time
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Op names used in the call log and for failure injection
const (
	OpEnableRaw    = "EnableRawMode"
	OpDisableRaw   = "DisableRawMode"
	OpEnterAlt     = "EnterAltScreen"
	OpLeaveAlt     = "LeaveAltScreen"
	OpEnableMouse  = "EnableMouseCapture"
	OpDisableMouse = "DisableMouseCapture"
	OpClear        = "ClearScreen"
	OpShowCursor   = "ShowCursor"
	OpHideCursor   = "HideCursor"
	OpPoll         = "Poll"
	OpRead         = "ReadEvent"
)

type scheduled struct {
	at time.Time
	ev terminal.Event
}

// Driver is a fake terminal.Driver. Mode calls flip flags and are logged;
// input is scripted with arrival times measured on Clock
type Driver struct {
	mu    sync.Mutex
	clock Clock

	state   terminal.State
	calls   []string
	fail    map[string]error
	horizon time.Time

	queue []scheduled
	polls int

	surface *Surface
}

var _ terminal.Driver = (*Driver)(nil)

// New creates a fake driver on clock; a nil clock uses the wall clock
func New(clock Clock) *Driver {
	if clock == nil {
		clock = RealClock{}
	}
	return &Driver{
		clock:   clock,
		state:   terminal.State{CursorVisible: true},
		fail:    make(map[string]error),
		surface: &Surface{Width: 80, Height: 24, lines: make(map[int]string)},
	}
}

// Fail makes every subsequent call of op return err; nil clears it
func (d *Driver) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// EndAt sets the script horizon: once the clock reaches it, Poll fails with ErrHorizon
func (d *Driver) EndAt(offset time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.horizon = d.clock.Now().Add(offset)
}

// Schedule queues ev to arrive after offset from the current clock reading
func (d *Driver) Schedule(offset time.Duration, ev terminal.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	at := d.clock.Now().Add(offset)
	i := len(d.queue)
	for i > 0 && d.queue[i-1].at.After(at) {
		i--
	}
	d.queue = append(d.queue, scheduled{})
	copy(d.queue[i+1:], d.queue[i:])
	d.queue[i] = scheduled{at: at, ev: ev}
}

// Inject queues ev to arrive immediately
func (d *Driver) Inject(ev terminal.Event) {
	d.Schedule(0, ev)
}

// Key is shorthand for a rune key event
func Key(r rune) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: r}
}

// State returns the current mode flags
func (d *Driver) State() terminal.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Calls returns the mode-change call log (Poll/ReadEvent are not logged)
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// CallCount returns how many times op was logged
func (d *Driver) CallCount(op string) int {
	n := 0
	for _, c := range d.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// PollCount returns the number of Poll calls
func (d *Driver) PollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

func (d *Driver) mode(op string, apply func(*terminal.State)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
	if err := d.fail[op]; err != nil {
		return terminal.WrapError(op, err)
	}
	apply(&d.state)
	return nil
}

func (d *Driver) EnableRawMode() error {
	return d.mode(OpEnableRaw, func(s *terminal.State) { s.Raw = true })
}

func (d *Driver) DisableRawMode() error {
	return d.mode(OpDisableRaw, func(s *terminal.State) { s.Raw = false })
}

func (d *Driver) EnterAltScreen() error {
	return d.mode(OpEnterAlt, func(s *terminal.State) { s.AltScreen = true })
}

func (d *Driver) LeaveAltScreen() error {
	return d.mode(OpLeaveAlt, func(s *terminal.State) { s.AltScreen = false })
}

func (d *Driver) EnableMouseCapture() error {
	return d.mode(OpEnableMouse, func(s *terminal.State) { s.Mouse = true })
}

func (d *Driver) DisableMouseCapture() error {
	return d.mode(OpDisableMouse, func(s *terminal.State) { s.Mouse = false })
}

func (d *Driver) ClearScreen() error {
	return d.mode(OpClear, func(*terminal.State) {})
}

func (d *Driver) ShowCursor() error {
	return d.mode(OpShowCursor, func(s *terminal.State) { s.CursorVisible = true })
}

func (d *Driver) HideCursor() error {
	return d.mode(OpHideCursor, func(s *terminal.State) { s.CursorVisible = false })
}

// Poll reports whether a scripted event has arrived, sleeping on the clock until
// the next arrival or timeout, whichever is first
func (d *Driver) Poll(timeout time.Duration) (bool, error) {
	d.mu.Lock()
	d.polls++
	if err := d.fail[OpPoll]; err != nil {
		d.mu.Unlock()
		return false, terminal.WrapError("poll", err)
	}

	now := d.clock.Now()
	if !d.horizon.IsZero() && !now.Before(d.horizon) {
		d.mu.Unlock()
		return false, terminal.WrapError("poll", ErrHorizon)
	}
	if len(d.queue) > 0 && !d.queue[0].at.After(now) {
		d.mu.Unlock()
		return true, nil
	}

	wait := timeout
	ready := false
	if len(d.queue) > 0 {
		if until := d.queue[0].at.Sub(now); until <= wait {
			wait = until
			ready = true
		}
	}
	if !d.horizon.IsZero() {
		if until := d.horizon.Sub(now); until < wait {
			wait = until
			ready = false
		}
	}
	d.mu.Unlock()

	d.clock.Sleep(wait)
	return ready, nil
}

// ReadEvent returns the oldest arrived event, sleeping until the next one if none has arrived
func (d *Driver) ReadEvent() (terminal.Event, error) {
	d.mu.Lock()
	if err := d.fail[OpRead]; err != nil {
		d.mu.Unlock()
		return terminal.Event{}, terminal.WrapError("read", err)
	}
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return terminal.Event{}, terminal.WrapError("read", ErrHorizon)
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	if wait := next.at.Sub(d.clock.Now()); wait > 0 {
		d.clock.Sleep(wait)
	}
	return next.ev, nil
}

// Surface returns the recording surface
func (d *Driver) Surface() terminal.Surface {
	return d.surface
}

// Recorder returns the concrete surface for assertions
func (d *Driver) Recorder() *Surface {
	return d.surface
}

// Surface records drawn text per row
type Surface struct {
	mu      sync.Mutex
	Width   int
	Height  int
	lines   map[int]string
	flushes int
}

func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Width, s.Height
}

func (s *Surface) Draw(x, y int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[y] = strings.Repeat(" ", x) + text
}

func (s *Surface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// Line returns the text last drawn on row y
func (s *Surface) Line(y int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines[y]
}

// Flushes returns the number of Flush calls
func (s *Surface) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// String dumps the recorded rows, for test failure messages
func (s *Surface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for y := 0; y < s.Height; y++ {
		if line, ok := s.lines[y]; ok {
			fmt.Fprintf(&b, "%2d|%s\n", y, line)
		}
	}
	return b.String()
}
