package tcelldrv

import (
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termtick/terminal"
)

var errNotActive = errors.New("screen not initialized")

const pressButtons = tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle

// converter maps tcell events to the driver-neutral form. It remembers the
// buttons held by the previous mouse event, since tcell reports button state
// rather than press, drag and release transitions. Not safe for concurrent use
type converter struct {
	held tcell.ButtonMask
}

// convert maps ev; unsupported events become a zero-key EventKey that the multiplexer drops
func (c *converter) convert(ev tcell.Event) terminal.Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return convertKey(e)
	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.Event{Type: terminal.EventResize, Width: w, Height: h}
	case *tcell.EventMouse:
		return c.convertMouse(e)
	}
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyNone}
}

func convertKey(e *tcell.EventKey) terminal.Event {
	out := terminal.Event{Type: terminal.EventKey, Modifiers: convertMods(e.Modifiers())}

	switch k := e.Key(); k {
	case tcell.KeyRune:
		out.Key = terminal.KeyRune
		out.Rune = e.Rune()
	case tcell.KeyEscape:
		out.Key = terminal.KeyEscape
	case tcell.KeyEnter:
		out.Key = terminal.KeyEnter
	case tcell.KeyTab:
		out.Key = terminal.KeyTab
	case tcell.KeyBacktab:
		out.Key = terminal.KeyBacktab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		out.Key = terminal.KeyBackspace
	case tcell.KeyDelete:
		out.Key = terminal.KeyDelete
	case tcell.KeyUp:
		out.Key = terminal.KeyUp
	case tcell.KeyDown:
		out.Key = terminal.KeyDown
	case tcell.KeyLeft:
		out.Key = terminal.KeyLeft
	case tcell.KeyRight:
		out.Key = terminal.KeyRight
	case tcell.KeyHome:
		out.Key = terminal.KeyHome
	case tcell.KeyEnd:
		out.Key = terminal.KeyEnd
	case tcell.KeyPgUp:
		out.Key = terminal.KeyPageUp
	case tcell.KeyPgDn:
		out.Key = terminal.KeyPageDown
	case tcell.KeyInsert:
		out.Key = terminal.KeyInsert
	case tcell.KeyCtrlSpace:
		out.Key = terminal.KeyCtrlSpace
	case tcell.KeyCtrlBackslash:
		out.Key = terminal.KeyCtrlBackslash
	case tcell.KeyCtrlRightSq:
		out.Key = terminal.KeyCtrlBracketRight
	case tcell.KeyCtrlCarat:
		out.Key = terminal.KeyCtrlCaret
	case tcell.KeyCtrlUnderscore:
		out.Key = terminal.KeyCtrlUnderscore
	default:
		switch {
		case k >= tcell.KeyF1 && k <= tcell.KeyF12:
			out.Key = terminal.KeyF1 + terminal.Key(k-tcell.KeyF1)
		case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
			out.Key = terminal.KeyCtrlA + terminal.Key(k-tcell.KeyCtrlA)
		default:
			// F13 and up, Print, Pause, Help and the like
			out.Key = terminal.KeyExtended
			out.Code = int(k)
		}
	}

	// tcell reports the Ctrl modifier on control keys, the key itself already says so
	if out.Key >= terminal.KeyCtrlA && out.Key <= terminal.KeyCtrlUnderscore {
		out.Modifiers &^= terminal.ModCtrl
	}
	return out
}

func convertMods(m tcell.ModMask) terminal.Modifier {
	var out terminal.Modifier
	if m&tcell.ModShift != 0 {
		out |= terminal.ModShift
	}
	if m&tcell.ModAlt != 0 {
		out |= terminal.ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		out |= terminal.ModCtrl
	}
	return out
}

func buttonOf(btn tcell.ButtonMask) terminal.MouseButton {
	switch {
	case btn&tcell.ButtonPrimary != 0:
		return terminal.MouseBtnLeft
	case btn&tcell.ButtonSecondary != 0:
		return terminal.MouseBtnRight
	case btn&tcell.ButtonMiddle != 0:
		return terminal.MouseBtnMiddle
	}
	return terminal.MouseBtnNone
}

// convertMouse derives the action from the held-button transition:
// new button = press, same button again = drag, buttons let go = release,
// nothing held before or after = move
func (c *converter) convertMouse(e *tcell.EventMouse) terminal.Event {
	x, y := e.Position()
	out := terminal.Event{
		Type:      terminal.EventMouse,
		MouseX:    x,
		MouseY:    y,
		Modifiers: convertMods(e.Modifiers()),
	}

	btn := e.Buttons()
	switch {
	case btn&tcell.WheelUp != 0:
		out.MouseBtn = terminal.MouseBtnWheelUp
		out.MouseAction = terminal.MouseActionPress
		return out
	case btn&tcell.WheelDown != 0:
		out.MouseBtn = terminal.MouseBtnWheelDown
		out.MouseAction = terminal.MouseActionPress
		return out
	}

	now := btn & pressButtons
	prev := c.held
	c.held = now

	switch {
	case now == 0 && prev == 0:
		out.MouseAction = terminal.MouseActionMove
	case now == 0:
		out.MouseBtn = buttonOf(prev)
		out.MouseAction = terminal.MouseActionRelease
	case now&^prev != 0:
		out.MouseBtn = buttonOf(now &^ prev)
		out.MouseAction = terminal.MouseActionPress
	default:
		out.MouseBtn = buttonOf(now)
		out.MouseAction = terminal.MouseActionDrag
	}
	return out
}
