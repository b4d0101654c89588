package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/termtick/terminal"
	"github.com/lixenwraith/termtick/terminal/termtest"
)

func TestBeginEnd_RestoresFlags(t *testing.T) {
	d := termtest.New(nil)
	before := d.State()

	s, err := Begin(d, d.Surface())
	if err != nil {
		t.Fatal(err)
	}
	want := terminal.State{Raw: true, AltScreen: true, Mouse: true, CursorVisible: false}
	if got := d.State(); got != want {
		t.Errorf("state during session = %+v, want %+v", got, want)
	}
	if d.CallCount(termtest.OpClear) != 1 {
		t.Error("screen not cleared")
	}
	if !s.Active() || s.Surface() == nil {
		t.Error("session not active or missing surface")
	}

	if err := s.End(); err != nil {
		t.Fatal(err)
	}
	if got := d.State(); got != before {
		t.Errorf("state after End = %+v, want %+v", got, before)
	}
	if s.Active() {
		t.Error("session still active after End")
	}
}

func TestEnd_SecondCallRejected(t *testing.T) {
	d := termtest.New(nil)
	s, err := Begin(d, d.Surface())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.End(); err != nil {
		t.Fatal(err)
	}
	calls := len(d.Calls())

	if err := s.End(); !errors.Is(err, ErrNotActive) {
		t.Errorf("second End = %v, want ErrNotActive", err)
	}
	if len(d.Calls()) != calls {
		t.Error("second End touched the driver")
	}
}

func TestBegin_SingleSessionPerDriver(t *testing.T) {
	d := termtest.New(nil)
	s, err := Begin(d, d.Surface())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Begin(d, d.Surface()); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Begin = %v, want ErrSessionActive", err)
	}

	// A different driver is independent
	other := termtest.New(nil)
	s2, err := Begin(other, other.Surface())
	if err != nil {
		t.Fatalf("Begin on other driver: %v", err)
	}

	s.End()
	s2.End()

	s3, err := Begin(d, d.Surface())
	if err != nil {
		t.Fatalf("Begin after End: %v", err)
	}
	s3.End()
}

func TestBegin_UnwindsOnFailure(t *testing.T) {
	tests := []struct {
		failOp    string
		wantUndos []string
	}{
		{termtest.OpEnableRaw, nil},
		{termtest.OpEnterAlt, []string{termtest.OpDisableRaw}},
		{termtest.OpEnableMouse, []string{termtest.OpLeaveAlt, termtest.OpDisableRaw}},
		{termtest.OpHideCursor, []string{termtest.OpDisableMouse, termtest.OpLeaveAlt, termtest.OpDisableRaw}},
		{termtest.OpClear, []string{termtest.OpShowCursor, termtest.OpDisableMouse, termtest.OpLeaveAlt, termtest.OpDisableRaw}},
	}

	for _, tt := range tests {
		t.Run(tt.failOp, func(t *testing.T) {
			d := termtest.New(nil)
			before := d.State()
			boom := errors.New("boom")
			d.Fail(tt.failOp, boom)

			s, err := Begin(d, d.Surface())
			if s != nil {
				t.Fatal("Begin returned a session on failure")
			}
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want boom", err)
			}
			var te *terminal.TerminalError
			if !errors.As(err, &te) {
				t.Errorf("err %v is not a TerminalError", err)
			}
			if got := d.State(); got != before {
				t.Errorf("state after failed Begin = %+v, want %+v", got, before)
			}

			calls := d.Calls()
			idx := -1
			for i, c := range calls {
				if c == tt.failOp {
					idx = i
				}
			}
			undos := calls[idx+1:]
			if strings.Join(undos, ",") != strings.Join(tt.wantUndos, ",") {
				t.Errorf("undo calls = %v, want %v", undos, tt.wantUndos)
			}

			// The driver is free again
			d.Fail(tt.failOp, nil)
			s, err = Begin(d, d.Surface())
			if err != nil {
				t.Fatalf("Begin after failed Begin: %v", err)
			}
			s.End()
		})
	}
}

func TestBegin_UndoFailureJoined(t *testing.T) {
	d := termtest.New(nil)
	boom := errors.New("boom")
	stuck := errors.New("stuck")
	d.Fail(termtest.OpEnableMouse, boom)
	d.Fail(termtest.OpLeaveAlt, stuck)

	_, err := Begin(d, d.Surface())
	if !errors.Is(err, boom) || !errors.Is(err, stuck) {
		t.Fatalf("err = %v, want both boom and stuck", err)
	}
	if d.State().Raw {
		t.Error("raw mode left on after undo")
	}
}

func TestEnd_BestEffort(t *testing.T) {
	d := termtest.New(nil)
	s, err := Begin(d, d.Surface())
	if err != nil {
		t.Fatal(err)
	}
	stuck := errors.New("stuck")
	d.Fail(termtest.OpLeaveAlt, stuck)

	err = s.End()
	if !errors.Is(err, stuck) {
		t.Fatalf("End = %v, want stuck", err)
	}
	st := d.State()
	if st.Raw || st.Mouse || !st.CursorVisible {
		t.Errorf("remaining restore steps skipped: %+v", st)
	}
}

func TestBegin_WithoutMouse(t *testing.T) {
	d := termtest.New(nil)
	s, err := Begin(d, d.Surface(), WithoutMouse())
	if err != nil {
		t.Fatal(err)
	}
	if d.State().Mouse {
		t.Error("mouse enabled")
	}
	s.End()
	if d.CallCount(termtest.OpEnableMouse) != 0 || d.CallCount(termtest.OpDisableMouse) != 0 {
		t.Errorf("mouse calls made: %v", d.Calls())
	}
}

func TestRun_EndsExactlyOnce(t *testing.T) {
	d := termtest.New(nil)
	fnErr := errors.New("app failed")

	err := Run(d, func(s *Session) error {
		if !d.State().Raw {
			t.Error("fn ran outside raw mode")
		}
		return fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Errorf("Run = %v, want fn error", err)
	}
	if n := d.CallCount(termtest.OpDisableRaw); n != 1 {
		t.Errorf("DisableRawMode called %d times, want 1", n)
	}
}

func TestRun_EndTolerated(t *testing.T) {
	d := termtest.New(nil)
	err := Run(d, func(s *Session) error {
		return s.End()
	})
	if err != nil {
		t.Errorf("Run = %v", err)
	}
	if n := d.CallCount(termtest.OpDisableRaw); n != 1 {
		t.Errorf("DisableRawMode called %d times, want 1", n)
	}
}

func TestRun_PanicRestoresThenRepanics(t *testing.T) {
	d := termtest.New(nil)

	defer func() {
		r := recover()
		if r != "kaboom" {
			t.Errorf("recovered %v, want kaboom", r)
		}
		if st := d.State(); st.Raw || st.AltScreen || st.Mouse || !st.CursorVisible {
			t.Errorf("terminal not restored after panic: %+v", st)
		}
		if n := d.CallCount(termtest.OpDisableRaw); n != 1 {
			t.Errorf("DisableRawMode called %d times, want 1", n)
		}
	}()

	Run(d, func(*Session) error {
		panic("kaboom")
	})
}

func TestRun_BeginFailureSkipsFn(t *testing.T) {
	d := termtest.New(nil)
	d.Fail(termtest.OpEnableRaw, errors.New("no tty"))

	called := false
	err := Run(d, func(*Session) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("Run = %v, fn called = %v", err, called)
	}
}

func TestRun_NilDriver(t *testing.T) {
	called := false
	err := Run(nil, func(*Session) error {
		called = true
		return nil
	})
	var te *terminal.TerminalError
	if !errors.As(err, &te) || te.Op != "begin" {
		t.Errorf("Run(nil) = %v, want begin TerminalError", err)
	}
	if called {
		t.Error("fn called without a driver")
	}
}
