package terminal

import "time"

// Controller switches terminal modes. Calls mutate the shared physical device and
// must not run concurrently with each other
type Controller interface {
	EnableRawMode() error
	DisableRawMode() error
	EnterAltScreen() error
	LeaveAltScreen() error
	EnableMouseCapture() error
	DisableMouseCapture() error
	ClearScreen() error
	ShowCursor() error
	HideCursor() error
}

// Source delivers input events
type Source interface {
	// Poll reports whether an event can be read without blocking, waiting at most timeout
	Poll(timeout time.Duration) (bool, error)

	// ReadEvent returns the next input event, blocking until one is available
	ReadEvent() (Event, error)
}

// Surface is the display handle given to renderers while a session is live
type Surface interface {
	// Size returns current terminal dimensions
	Size() (width, height int)

	// Draw queues text at the 0-indexed cell position; text may carry SGR styling
	Draw(x, y int, text string)

	// Flush writes queued drawing to the terminal
	Flush() error
}

// Driver is the full terminal capability: mode control, input and display
type Driver interface {
	Controller
	Source
	Surface() Surface
}

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventMouse
	EventPaste // Reserved: bracketed paste
)

// String returns the event category name
func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventResize:
		return "resize"
	case EventMouse:
		return "mouse"
	case EventPaste:
		return "paste"
	default:
		return "unknown"
	}
}

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Code      int // Driver key code, set for KeyExtended
	Width     int // For EventResize
	Height    int // For EventResize

	// Mouse event fields
	MouseX      int
	MouseY      int
	MouseBtn    MouseButton
	MouseAction MouseAction
}

// IsKey reports whether the event is a keyboard event carrying a known key
func (e Event) IsKey() bool {
	return e.Type == EventKey && e.Key != KeyNone
}

// MouseButton represents mouse button identity
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
)

// String returns human-readable button name
func (b MouseButton) String() string {
	switch b {
	case MouseBtnLeft:
		return "Left"
	case MouseBtnMiddle:
		return "Middle"
	case MouseBtnRight:
		return "Right"
	case MouseBtnWheelUp:
		return "WheelUp"
	case MouseBtnWheelDown:
		return "WheelDown"
	default:
		return "None"
	}
}

// MouseAction represents the type of mouse event
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// String returns human-readable action name
func (a MouseAction) String() string {
	switch a {
	case MouseActionPress:
		return "Press"
	case MouseActionRelease:
		return "Release"
	case MouseActionMove:
		return "Move"
	case MouseActionDrag:
		return "Drag"
	default:
		return "None"
	}
}

// MouseMode controls which mouse events are reported (bitmask)
type MouseMode uint8

const (
	MouseModeNone   MouseMode = 0
	MouseModeClick  MouseMode = 1 << 0 // Press/release events
	MouseModeDrag   MouseMode = 1 << 1 // Drag events (button held + motion)
	MouseModeMotion MouseMode = 1 << 2 // All motion events
)
