// Package app composes the session guard, the multiplexer and an event handler
// into a complete application loop.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/lixenwraith/termtick/event"
	"github.com/lixenwraith/termtick/mux"
	"github.com/lixenwraith/termtick/session"
	"github.com/lixenwraith/termtick/terminal"
)

// Handler consumes events on the application goroutine. Returning false ends Run
type Handler interface {
	HandleEvent(s terminal.Surface, ev event.Event) bool
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(s terminal.Surface, ev event.Event) bool

func (f HandlerFunc) HandleEvent(s terminal.Surface, ev event.Event) bool {
	return f(s, ev)
}

// Run takes over drv, multiplexes its input with ticks and feeds every event
// to h until h returns false, ctx is done, or the multiplexer faults.
// The multiplexer is stopped before the terminal is restored, and the
// terminal is restored exactly once on every path, panics included
func Run(ctx context.Context, drv terminal.Driver, cfg mux.Config, h Handler, opts ...session.Option) error {
	return session.Run(drv, func(s *session.Session) error {
		m, err := mux.Start(ctx, drv, cfg)
		if err != nil {
			return err
		}
		defer m.Stop()

		return consume(ctx, m, s.Surface(), h)
	}, opts...)
}

func consume(ctx context.Context, m *mux.Multiplexer, surface terminal.Surface, h Handler) error {
	q := m.Events()
	for {
		ev, err := q.Next(ctx)
		switch {
		case errors.Is(err, event.ErrQueueClosed):
			// Loop ended on its own: a fault already delivered, or cancellation
			return m.Err()
		case err != nil:
			return nil
		}

		if ev.Kind() == event.KindFault {
			// The handler's last frame is shown before the session restores the terminal
			h.HandleEvent(surface, ev)
			if surface != nil {
				if err := surface.Flush(); err != nil {
					return errors.Join(ev.Err(), fmt.Errorf("flush: %w", err))
				}
			}
			return ev.Err()
		}
		if !h.HandleEvent(surface, ev) {
			return nil
		}
		if surface != nil {
			if err := surface.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}
}
