package termtest

import (
	"errors"
	"testing"
	"time"

	"github.com/lixenwraith/termtick/terminal"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDriver_ModeFlagsAndLog(t *testing.T) {
	d := New(NewMockClock(epoch))

	if err := d.EnableRawMode(); err != nil {
		t.Fatal(err)
	}
	if err := d.EnterAltScreen(); err != nil {
		t.Fatal(err)
	}
	if err := d.HideCursor(); err != nil {
		t.Fatal(err)
	}

	want := terminal.State{Raw: true, AltScreen: true}
	if got := d.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}

	calls := d.Calls()
	if len(calls) != 3 || calls[0] != OpEnableRaw || calls[2] != OpHideCursor {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestDriver_FailInjection(t *testing.T) {
	d := New(NewMockClock(epoch))
	boom := errors.New("boom")
	d.Fail(OpEnterAlt, boom)

	err := d.EnterAltScreen()
	if !errors.Is(err, boom) {
		t.Fatalf("EnterAltScreen() = %v, want boom", err)
	}
	var te *terminal.TerminalError
	if !errors.As(err, &te) || te.Op != OpEnterAlt {
		t.Errorf("error not a TerminalError for %s: %v", OpEnterAlt, err)
	}
	if d.State().AltScreen {
		t.Error("failed call changed state")
	}

	d.Fail(OpEnterAlt, nil)
	if err := d.EnterAltScreen(); err != nil {
		t.Errorf("cleared failure still returned %v", err)
	}
}

func TestDriver_PollAdvancesMockClock(t *testing.T) {
	clock := NewMockClock(epoch)
	d := New(clock)
	d.Schedule(50*time.Millisecond, Key('x'))

	ready, err := d.Poll(20 * time.Millisecond)
	if err != nil || ready {
		t.Fatalf("Poll(20ms) = %v, %v; want false, nil", ready, err)
	}
	if got := clock.Now().Sub(epoch); got != 20*time.Millisecond {
		t.Errorf("clock advanced %v, want 20ms", got)
	}

	ready, err = d.Poll(200 * time.Millisecond)
	if err != nil || !ready {
		t.Fatalf("Poll(200ms) = %v, %v; want true, nil", ready, err)
	}
	if got := clock.Now().Sub(epoch); got != 50*time.Millisecond {
		t.Errorf("clock at %v after early return, want 50ms", got)
	}

	ev, err := d.ReadEvent()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Rune != 'x' {
		t.Errorf("ReadEvent() rune = %q, want 'x'", ev.Rune)
	}
}

func TestDriver_ScheduleKeepsArrivalOrder(t *testing.T) {
	d := New(NewMockClock(epoch))
	d.Schedule(30*time.Millisecond, Key('b'))
	d.Schedule(10*time.Millisecond, Key('a'))
	d.Schedule(30*time.Millisecond, Key('c'))

	var got []rune
	for i := 0; i < 3; i++ {
		ev, err := d.ReadEvent()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ev.Rune)
	}
	if string(got) != "abc" {
		t.Errorf("read order = %q, want \"abc\"", string(got))
	}
}

func TestDriver_Horizon(t *testing.T) {
	clock := NewMockClock(epoch)
	d := New(clock)
	d.EndAt(100 * time.Millisecond)

	ready, err := d.Poll(time.Second)
	if err != nil || ready {
		t.Fatalf("first Poll = %v, %v", ready, err)
	}
	if got := clock.Now().Sub(epoch); got != 100*time.Millisecond {
		t.Errorf("clock stopped at %v, want horizon", got)
	}

	_, err = d.Poll(time.Second)
	if !errors.Is(err, ErrHorizon) {
		t.Errorf("Poll past horizon = %v, want ErrHorizon", err)
	}
}

func TestSurface_Records(t *testing.T) {
	d := New(nil)
	s := d.Surface()
	s.Draw(2, 1, "hi")
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := d.Recorder().Line(1); got != "  hi" {
		t.Errorf("Line(1) = %q", got)
	}
	if d.Recorder().Flushes() != 1 {
		t.Errorf("Flushes() = %d", d.Recorder().Flushes())
	}
}
