// Package session owns the terminal takeover: raw mode, alternate screen,
// mouse capture and cursor, applied together and restored together.
package session

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/lixenwraith/termtick/terminal"
)

var (
	// ErrSessionActive is returned by Begin while another session holds the same driver
	ErrSessionActive = errors.New("session already active on this terminal")

	// ErrNotActive is returned by End on a session that has already ended
	ErrNotActive = errors.New("session not active")
)

// held tracks drivers with a live session in this process
var held = struct {
	sync.Mutex
	m map[terminal.Controller]struct{}
}{m: make(map[terminal.Controller]struct{})}

// acquire marks ctrl as held. Controllers of non-comparable dynamic type
// cannot be tracked and are admitted unchecked
func acquire(ctrl terminal.Controller) error {
	if !reflect.TypeOf(ctrl).Comparable() {
		return nil
	}
	held.Lock()
	defer held.Unlock()
	if _, ok := held.m[ctrl]; ok {
		return ErrSessionActive
	}
	held.m[ctrl] = struct{}{}
	return nil
}

func release(ctrl terminal.Controller) {
	if !reflect.TypeOf(ctrl).Comparable() {
		return
	}
	held.Lock()
	delete(held.m, ctrl)
	held.Unlock()
}

// Option adjusts Begin
type Option func(*options)

type options struct {
	mouse bool
}

// WithoutMouse skips mouse capture; End then leaves mouse reporting untouched
func WithoutMouse() Option {
	return func(o *options) { o.mouse = false }
}

// Session is one active terminal takeover. Not safe for concurrent use
type Session struct {
	ctrl    terminal.Controller
	surface terminal.Surface
	mouse   bool

	mu     sync.Mutex
	active bool
}

type step struct {
	name string
	do   func() error
	undo func() error
}

// Begin takes over the terminal: raw mode, alternate screen, mouse capture,
// hidden cursor, cleared screen. Steps already applied are reverted if a later
// one fails, so a failed Begin leaves the terminal as it found it (best effort)
func Begin(ctrl terminal.Controller, surface terminal.Surface, opts ...Option) (*Session, error) {
	o := options{mouse: true}
	for _, opt := range opts {
		opt(&o)
	}
	if ctrl == nil {
		return nil, terminal.WrapError("begin", errors.New("nil controller"))
	}
	if err := acquire(ctrl); err != nil {
		return nil, err
	}

	steps := []step{
		{"enable raw mode", ctrl.EnableRawMode, ctrl.DisableRawMode},
		{"enter alt screen", ctrl.EnterAltScreen, ctrl.LeaveAltScreen},
	}
	if o.mouse {
		steps = append(steps, step{"enable mouse capture", ctrl.EnableMouseCapture, ctrl.DisableMouseCapture})
	}
	steps = append(steps,
		step{"hide cursor", ctrl.HideCursor, ctrl.ShowCursor},
		step{"clear screen", ctrl.ClearScreen, nil},
	)

	for i, st := range steps {
		if err := st.do(); err != nil {
			errs := []error{fmt.Errorf("session begin: %w", terminal.WrapError(st.name, err))}
			for j := i - 1; j >= 0; j-- {
				if steps[j].undo == nil {
					continue
				}
				if uerr := steps[j].undo(); uerr != nil {
					errs = append(errs, fmt.Errorf("undo %s: %w", steps[j].name, uerr))
				}
			}
			release(ctrl)
			return nil, errors.Join(errs...)
		}
	}

	return &Session{ctrl: ctrl, surface: surface, mouse: o.mouse, active: true}, nil
}

// End restores the terminal. Every restore step runs even if an earlier one
// fails; failures are joined. A second End returns ErrNotActive without
// touching the terminal
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNotActive
	}
	s.active = false
	defer release(s.ctrl)

	var errs []error
	run := func(name string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("session end: %w", terminal.WrapError(name, err)))
		}
	}

	run("show cursor", s.ctrl.ShowCursor)
	if s.mouse {
		run("disable mouse capture", s.ctrl.DisableMouseCapture)
	}
	run("leave alt screen", s.ctrl.LeaveAltScreen)
	run("disable raw mode", s.ctrl.DisableRawMode)

	return errors.Join(errs...)
}

// Active reports whether End has not yet run
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Surface returns the display surface established by Begin
func (s *Session) Surface() terminal.Surface {
	return s.surface
}

// Run begins a session on d, calls fn, and ends the session exactly once on
// every path out of fn, including a panic, which is re-raised after End
func Run(d terminal.Driver, fn func(*Session) error, opts ...Option) (err error) {
	if d == nil {
		return terminal.WrapError("begin", errors.New("nil driver"))
	}
	s, err := Begin(d, d.Surface(), opts...)
	if err != nil {
		return err
	}

	defer func() {
		r := recover()
		endErr := s.End()
		if errors.Is(endErr, ErrNotActive) {
			endErr = nil
		}
		if r != nil {
			panic(r)
		}
		err = errors.Join(err, endErr)
	}()

	return fn(s)
}
