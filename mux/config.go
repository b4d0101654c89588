package mux

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lixenwraith/termtick/status"
)

const (
	// DefaultTickInterval is used when Config.TickInterval is zero
	DefaultTickInterval = 100 * time.Millisecond

	// MinTickInterval keeps the loop from spinning on poll(0)
	MinTickInterval = time.Millisecond
)

// ErrInvalidInterval is returned by Validate for a negative or sub-millisecond interval
var ErrInvalidInterval = errors.New("invalid tick interval")

// Clock supplies the loop's notion of now
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Config controls a Multiplexer. The zero value is usable
type Config struct {
	// TickInterval is the tick cadence; zero means DefaultTickInterval
	TickInterval time.Duration

	// ForwardResize emits KindResize events instead of dropping resizes
	ForwardResize bool

	// ForwardMouse emits KindMouse events instead of dropping mouse reports
	ForwardMouse bool

	// Clock defaults to the wall clock
	Clock Clock

	// Logger defaults to a discarding logger
	Logger *log.Logger

	// Status receives loop counters; a private registry is created when nil
	Status *status.Registry
}

// Validate reports configuration errors without applying defaults
func (c Config) Validate() error {
	if c.TickInterval < 0 || (c.TickInterval > 0 && c.TickInterval < MinTickInterval) {
		return fmt.Errorf("%w: %v (minimum %v)", ErrInvalidInterval, c.TickInterval, MinTickInterval)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Clock == nil {
		c.Clock = wallClock{}
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	if c.Status == nil {
		c.Status = status.NewRegistry()
	}
	return c
}
