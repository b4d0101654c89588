package event

import (
	"time"

	"github.com/lixenwraith/termtick/terminal"
)

// Kind tags the variant carried by an Event
type Kind int

const (
	// KindTick is the periodic timer firing; no payload
	KindTick Kind = iota

	// KindInput carries a key event from the driver
	KindInput

	// KindResize carries a terminal resize, only when forwarding is enabled
	KindResize

	// KindMouse carries a mouse report, only when forwarding is enabled
	KindMouse

	// KindFault carries the driver error that stopped the producer; always last
	KindFault
)

var kindNames = [...]string{
	KindTick:   "tick",
	KindInput:  "input",
	KindResize: "resize",
	KindMouse:  "mouse",
	KindFault:  "fault",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is an immutable multiplexed event. Fields are unexported so a value
// cannot change after construction; copies are independent
type Event struct {
	kind  Kind
	input terminal.Event
	err   error
	at    time.Time
}

// Tick creates a tick event observed at at
func Tick(at time.Time) Event {
	return Event{kind: KindTick, at: at}
}

// Input creates an input event for a key payload
func Input(ev terminal.Event, at time.Time) Event {
	return Event{kind: KindInput, input: ev, at: at}
}

// Resize creates a forwarded resize event
func Resize(ev terminal.Event, at time.Time) Event {
	return Event{kind: KindResize, input: ev, at: at}
}

// Mouse creates a forwarded mouse event
func Mouse(ev terminal.Event, at time.Time) Event {
	return Event{kind: KindMouse, input: ev, at: at}
}

// Fault creates a terminal fault event
func Fault(err error, at time.Time) Event {
	return Event{kind: KindFault, err: err, at: at}
}

func (e Event) Kind() Kind { return e.kind }

// Payload returns the driver event for Input, Resize and Mouse; zero otherwise
func (e Event) Payload() terminal.Event { return e.input }

// Err returns the fault error; nil for every other kind
func (e Event) Err() error { return e.err }

// At returns the time the producer observed the event
func (e Event) At() time.Time { return e.at }

func (e Event) String() string {
	switch e.kind {
	case KindInput:
		return "input(" + describeKey(e.input) + ")"
	case KindResize:
		return "resize"
	case KindMouse:
		return "mouse(" + e.input.MouseBtn.String() + ")"
	case KindFault:
		if e.err != nil {
			return "fault(" + e.err.Error() + ")"
		}
		return "fault"
	}
	return e.kind.String()
}

func describeKey(ev terminal.Event) string {
	name := ev.Key.String()
	if ev.Key == terminal.KeyRune {
		name = string(ev.Rune)
	}
	if ev.Modifiers != 0 {
		name = ev.Modifiers.String() + "+" + name
	}
	return name
}
