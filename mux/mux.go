// Package mux merges periodic ticks and terminal input into one ordered event queue.
package mux

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/termtick/event"
	"github.com/lixenwraith/termtick/status"
	"github.com/lixenwraith/termtick/terminal"
)

// Metric keys registered in Config.Status
const (
	MetricTicks     = "mux.ticks"
	MetricInputs    = "mux.inputs"
	MetricDropped   = "mux.dropped"
	MetricForwarded = "mux.forwarded"
	MetricFaults    = "mux.faults"
	MetricRunning   = "mux.running"
	MetricTickLag   = "mux.tick_lag_ms"
	MetricLastFault = "mux.last_fault"
)

var (
	// ErrNilSource is returned by Start without an input source
	ErrNilSource = errors.New("mux: nil input source")

	// ErrPanic wraps a panic recovered inside the loop
	ErrPanic = errors.New("mux: loop panicked")
)

// Multiplexer owns the producing end of an event queue and the goroutine feeding it
type Multiplexer struct {
	src   terminal.Source
	cfg   Config
	queue *event.Queue

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error

	statTicks     *atomic.Int64
	statInputs    *atomic.Int64
	statDropped   *atomic.Int64
	statForwarded *atomic.Int64
	statFaults    *atomic.Int64
	statRunning   *atomic.Bool
	statLag       *status.AtomicFloat
	statLastFault *status.AtomicString
}

// Start launches the loop reading from src. The loop runs until ctx is done,
// Stop is called, or src fails; in every case the queue is closed on exit
func Start(ctx context.Context, src terminal.Source, cfg Config) (*Multiplexer, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	reg := cfg.Status
	m := &Multiplexer{
		src:           src,
		cfg:           cfg,
		queue:         event.NewQueue(),
		done:          make(chan struct{}),
		statTicks:     reg.Ints.Get(MetricTicks),
		statInputs:    reg.Ints.Get(MetricInputs),
		statDropped:   reg.Ints.Get(MetricDropped),
		statForwarded: reg.Ints.Get(MetricForwarded),
		statFaults:    reg.Ints.Get(MetricFaults),
		statRunning:   reg.Bools.Get(MetricRunning),
		statLag:       reg.Floats.Get(MetricTickLag),
		statLastFault: reg.Strings.Get(MetricLastFault),
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.statRunning.Store(true)
	go m.loop(ctx)

	cfg.Logger.Printf("mux: started, tick=%v resize=%t mouse=%t", cfg.TickInterval, cfg.ForwardResize, cfg.ForwardMouse)
	return m, nil
}

// Events returns the consuming end of the queue
func (m *Multiplexer) Events() *event.Queue {
	return m.queue
}

// Stop cancels the loop and waits for it to exit. Safe to call more than once
// The wait is bounded by one tick interval plus one read
func (m *Multiplexer) Stop() {
	m.stopOnce.Do(m.cancel)
	<-m.done
}

// Done is closed once the loop has exited and the queue is closed
func (m *Multiplexer) Done() <-chan struct{} {
	return m.done
}

// Err returns the fault that ended the loop, nil after a clean stop
func (m *Multiplexer) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Multiplexer) loop(ctx context.Context) {
	defer close(m.done)
	defer m.queue.Close()
	defer m.statRunning.Store(false)
	defer func() {
		if r := recover(); r != nil {
			m.cfg.Logger.Printf("mux: panic: %v\n%s", r, debug.Stack())
			m.fault(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	interval := m.cfg.TickInterval
	clock := m.cfg.Clock
	lastTick := clock.Now()

	for {
		if ctx.Err() != nil {
			m.cfg.Logger.Printf("mux: stopped")
			return
		}

		timeout := interval - clock.Now().Sub(lastTick)
		if timeout < 0 {
			timeout = 0
		}

		ready, err := m.src.Poll(timeout)
		if err != nil {
			m.fail(ctx, "poll", err)
			return
		}
		if ready {
			ev, err := m.src.ReadEvent()
			if err != nil {
				m.fail(ctx, "read", err)
				return
			}
			m.dispatch(ev, clock.Now())
		}

		now := clock.Now()
		if elapsed := now.Sub(lastTick); elapsed >= interval {
			m.queue.Push(event.Tick(now))
			m.statTicks.Add(1)
			m.statLag.Max(float64(elapsed-interval) / float64(time.Millisecond))
			lastTick = now
		}
	}
}

// dispatch applies the drop law: keys always become Input, resize and mouse
// only when forwarding is enabled, everything else is dropped
func (m *Multiplexer) dispatch(ev terminal.Event, now time.Time) {
	switch {
	case ev.IsKey():
		m.queue.Push(event.Input(ev, now))
		m.statInputs.Add(1)
	case ev.Type == terminal.EventResize && m.cfg.ForwardResize:
		m.queue.Push(event.Resize(ev, now))
		m.statForwarded.Add(1)
	case ev.Type == terminal.EventMouse && m.cfg.ForwardMouse:
		m.queue.Push(event.Mouse(ev, now))
		m.statForwarded.Add(1)
	default:
		m.statDropped.Add(1)
	}
}

// fail reports err from source operation op as a fault unless the loop was
// already cancelled, in which case a failing source is part of shutdown
func (m *Multiplexer) fail(ctx context.Context, op string, err error) {
	if ctx.Err() != nil {
		m.cfg.Logger.Printf("mux: stopped (source: %v)", err)
		return
	}
	m.fault(terminal.WrapError(op, err))
}

func (m *Multiplexer) fault(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()

	m.statFaults.Add(1)
	m.statLastFault.Store(err.Error())
	m.cfg.Logger.Printf("mux: fault: %v", err)
	m.queue.Push(event.Fault(err, m.cfg.Clock.Now()))
}
