package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/lixenwraith/termtick/event"
	"github.com/lixenwraith/termtick/status"
	"github.com/lixenwraith/termtick/terminal"
	"github.com/lixenwraith/termtick/terminal/termtest"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestPanel() (*panel, *termtest.Driver) {
	d := termtest.New(nil)
	return newPanel(status.NewRegistry(), nil, 200*time.Millisecond), d
}

func plain(d *termtest.Driver) string {
	var b strings.Builder
	for y := 0; y < 24; y++ {
		b.WriteString(ansi.Strip(d.Recorder().Line(y)))
		b.WriteString("\n")
	}
	return b.String()
}

func TestPanel_QuitKeys(t *testing.T) {
	tests := []struct {
		name string
		ev   terminal.Event
		quit bool
	}{
		{"q", termtest.Key('q'), true},
		{"Q", termtest.Key('Q'), false},
		{"esc", terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEscape}, true},
		{"ctrl+c", terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlC}, true},
		{"alt+q", terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'q', Modifiers: terminal.ModAlt}, false},
		{"enter", terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEnter}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, d := newTestPanel()
			cont := p.HandleEvent(d.Surface(), event.Input(tt.ev, t0))
			if cont == tt.quit {
				t.Errorf("HandleEvent continue = %v, want quit=%v", cont, tt.quit)
			}
		})
	}
}

func TestPanel_DrawsState(t *testing.T) {
	p, d := newTestPanel()
	s := d.Surface()

	p.HandleEvent(s, event.Tick(t0.Add(200*time.Millisecond)))
	p.HandleEvent(s, event.Input(termtest.Key('x'), t0.Add(250*time.Millisecond)))
	p.HandleEvent(s, event.Tick(t0.Add(400*time.Millisecond)))

	out := plain(d)
	for _, want := range []string{"termtick", "ticks", "2", "input(x)", "app.last_key", "'x'"} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q:\n%s", want, out)
		}
	}
	for y := 0; y < 24; y++ {
		if w := ansi.StringWidth(d.Recorder().Line(y)); w > 80 {
			t.Errorf("row %d width %d exceeds surface", y, w)
		}
	}
}

func TestPanel_ResizeAndFault(t *testing.T) {
	p, d := newTestPanel()
	s := d.Surface()

	p.HandleEvent(s, event.Resize(terminal.Event{Type: terminal.EventResize, Width: 60, Height: 20}, t0))
	if p.width != 60 || p.height != 20 {
		t.Errorf("size = %dx%d, want 60x20", p.width, p.height)
	}

	p.HandleEvent(s, event.Fault(errors.New("input closed"), t0))
	if !strings.Contains(plain(d), "fault: input closed") {
		t.Errorf("fault not shown:\n%s", plain(d))
	}
}

func TestPanel_HistoryBounded(t *testing.T) {
	p, d := newTestPanel()
	for i := 0; i < 20; i++ {
		p.HandleEvent(d.Surface(), event.Input(termtest.Key(rune('a'+i)), t0))
	}
	if len(p.history) != historySize {
		t.Errorf("history len = %d, want %d", len(p.history), historySize)
	}
	if !strings.HasSuffix(p.history[len(p.history)-1], "input(t)") {
		t.Errorf("newest entry = %q", p.history[len(p.history)-1])
	}
}
