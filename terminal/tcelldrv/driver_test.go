package tcelldrv

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termtick/terminal"
)

func newSimDriver(t *testing.T) (*Driver, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	d := NewWithScreen(screen)
	if err := d.EnableRawMode(); err != nil {
		t.Fatalf("EnableRawMode: %v", err)
	}
	t.Cleanup(func() { d.DisableRawMode() })
	return d, screen
}

// nextKey polls until a key event arrives, skipping the resize tcell may post on Init
func nextKey(t *testing.T, d *Driver) terminal.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ready, err := d.Poll(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if !ready {
			continue
		}
		ev, err := d.ReadEvent()
		if err != nil {
			t.Fatalf("ReadEvent: %v", err)
		}
		if ev.Type == terminal.EventKey {
			return ev
		}
	}
	t.Fatal("no key event delivered")
	return terminal.Event{}
}

func TestDriver_LifecycleState(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	d := NewWithScreen(screen)

	before := d.State()
	if before.Raw || before.AltScreen || before.Mouse || !before.CursorVisible {
		t.Fatalf("unexpected initial state %+v", before)
	}

	steps := []func() error{d.EnableRawMode, d.EnterAltScreen, d.EnableMouseCapture, d.ClearScreen}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("setup step %d: %v", i, err)
		}
	}
	during := d.State()
	if !during.Raw || !during.AltScreen || !during.Mouse {
		t.Errorf("state after setup = %+v", during)
	}

	restore := []func() error{d.DisableRawMode, d.LeaveAltScreen, d.DisableMouseCapture, d.ShowCursor}
	for i, step := range restore {
		if err := step(); err != nil {
			t.Fatalf("restore step %d: %v", i, err)
		}
	}
	if after := d.State(); after != before {
		t.Errorf("state after restore = %+v, want %+v", after, before)
	}
}

func TestDriver_MouseRequiresInit(t *testing.T) {
	d := NewWithScreen(tcell.NewSimulationScreen("UTF-8"))
	var te *terminal.TerminalError
	if err := d.EnableMouseCapture(); !errors.As(err, &te) {
		t.Errorf("EnableMouseCapture before init = %v, want TerminalError", err)
	}
}

func TestDriver_KeyConversion(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want terminal.Event
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'q'}},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'x', Modifiers: terminal.ModAlt}},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEscape}},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEnter}},
		{"f5", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyF5}},
		{"ctrl c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlC}},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModShift),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyPageDown, Modifiers: terminal.ModShift}},
		{"ctrl backslash", tcell.NewEventKey(tcell.KeyCtrlBackslash, 0, tcell.ModCtrl),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlBackslash}},
		{"ctrl right bracket", tcell.NewEventKey(tcell.KeyCtrlRightSq, 0, tcell.ModCtrl),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlBracketRight}},
		{"ctrl caret", tcell.NewEventKey(tcell.KeyCtrlCarat, 0, tcell.ModCtrl),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlCaret}},
		{"ctrl underscore", tcell.NewEventKey(tcell.KeyCtrlUnderscore, 0, tcell.ModCtrl),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlUnderscore}},
		{"f13 keeps identity", tcell.NewEventKey(tcell.KeyF13, 0, tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyExtended, Code: int(tcell.KeyF13)}},
		{"pause keeps identity", tcell.NewEventKey(tcell.KeyPause, 0, tcell.ModNone),
			terminal.Event{Type: terminal.EventKey, Key: terminal.KeyExtended, Code: int(tcell.KeyPause)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c converter
			got := c.convert(tt.ev)
			if !got.IsKey() {
				t.Errorf("convert(%s) is not a key event", tt.name)
			}
			if got != tt.want {
				t.Errorf("convert = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDriver_ResizeAndMouseConversion(t *testing.T) {
	var c converter
	got := c.convert(tcell.NewEventResize(100, 30))
	if got.Type != terminal.EventResize || got.Width != 100 || got.Height != 30 {
		t.Errorf("resize converted to %+v", got)
	}

	got = c.convert(tcell.NewEventMouse(5, 6, tcell.ButtonPrimary, tcell.ModNone))
	if got.Type != terminal.EventMouse || got.MouseBtn != terminal.MouseBtnLeft || got.MouseX != 5 || got.MouseY != 6 {
		t.Errorf("mouse converted to %+v", got)
	}
}

func TestDriver_MouseActionSequence(t *testing.T) {
	var c converter
	steps := []struct {
		name       string
		x          int
		btn        tcell.ButtonMask
		wantBtn    terminal.MouseButton
		wantAction terminal.MouseAction
	}{
		{"press", 1, tcell.ButtonPrimary, terminal.MouseBtnLeft, terminal.MouseActionPress},
		{"drag", 2, tcell.ButtonPrimary, terminal.MouseBtnLeft, terminal.MouseActionDrag},
		{"drag further", 3, tcell.ButtonPrimary, terminal.MouseBtnLeft, terminal.MouseActionDrag},
		{"release", 3, tcell.ButtonNone, terminal.MouseBtnLeft, terminal.MouseActionRelease},
		{"move", 4, tcell.ButtonNone, terminal.MouseBtnNone, terminal.MouseActionMove},
		{"right press", 4, tcell.ButtonSecondary, terminal.MouseBtnRight, terminal.MouseActionPress},
		{"left joins", 5, tcell.ButtonSecondary | tcell.ButtonPrimary, terminal.MouseBtnLeft, terminal.MouseActionPress},
		{"release both", 5, tcell.ButtonNone, terminal.MouseBtnLeft, terminal.MouseActionRelease},
		{"wheel", 5, tcell.WheelUp, terminal.MouseBtnWheelUp, terminal.MouseActionPress},
		{"move after wheel", 6, tcell.ButtonNone, terminal.MouseBtnNone, terminal.MouseActionMove},
	}

	for _, st := range steps {
		got := c.convert(tcell.NewEventMouse(st.x, 0, st.btn, tcell.ModNone))
		if got.MouseBtn != st.wantBtn || got.MouseAction != st.wantAction || got.MouseX != st.x {
			t.Errorf("%s: got btn=%v action=%v x=%d, want btn=%v action=%v x=%d",
				st.name, got.MouseBtn, got.MouseAction, got.MouseX, st.wantBtn, st.wantAction, st.x)
		}
	}
}

func TestDriver_PollDeliversPostedKey(t *testing.T) {
	d, screen := newSimDriver(t)

	if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}

	ev := nextKey(t, d)
	if ev.Key != terminal.KeyRune || ev.Rune != 'a' {
		t.Errorf("got %+v, want rune a", ev)
	}
}

func TestDriver_PollTimesOut(t *testing.T) {
	d, _ := newSimDriver(t)

	// Drain anything tcell posted during Init
	for {
		ready, err := d.Poll(20 * time.Millisecond)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if !ready {
			break
		}
		d.ReadEvent()
	}

	start := time.Now()
	ready, err := d.Poll(30 * time.Millisecond)
	if err != nil || ready {
		t.Fatalf("Poll = %v, %v; want timeout", ready, err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Poll returned early after %v", elapsed)
	}
}

func TestDriver_ClosedAfterFini(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	d := NewWithScreen(screen)
	if err := d.EnableRawMode(); err != nil {
		t.Fatal(err)
	}
	if err := d.DisableRawMode(); err != nil {
		t.Fatal(err)
	}

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		var ready bool
		ready, err = d.Poll(10 * time.Millisecond)
		if ready {
			d.ReadEvent()
		}
	}
	if !errors.Is(err, terminal.ErrClosed) {
		t.Errorf("Poll after Fini = %v, want ErrClosed", err)
	}
}

func TestSurface_DrawWide(t *testing.T) {
	d, screen := newSimDriver(t)
	s := d.Surface()

	s.Draw(0, 0, "\x1b[1m界a\x1b[0m")
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	cells, width, _ := screen.GetContents()
	if len(cells) == 0 {
		t.Fatal("no cells")
	}
	if r := cells[0].Runes; len(r) == 0 || r[0] != '界' {
		t.Errorf("cell 0 = %v, want 界", r)
	}
	// Wide rune occupies two columns, 'a' lands at x=2
	if r := cells[2].Runes; width > 2 && (len(r) == 0 || r[0] != 'a') {
		t.Errorf("cell 2 = %v, want a", r)
	}
}
