package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termtick/audio"
	"github.com/lixenwraith/termtick/event"
	"github.com/lixenwraith/termtick/status"
	"github.com/lixenwraith/termtick/terminal"
)

const (
	historySize = 8
	labelWidth  = 18
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Width(labelWidth)

	faultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// panel is the demo application: it redraws a status box on every event
type panel struct {
	reg      *status.Registry
	player   *audio.Player
	interval time.Duration

	width, height int
	started       time.Time
	ticks         int64
	history       []string
	fault         string

	statEvents  *atomic.Int64
	statLastKey *status.AtomicString
}

func newPanel(reg *status.Registry, player *audio.Player, interval time.Duration) *panel {
	return &panel{
		reg:         reg,
		player:      player,
		interval:    interval,
		statEvents:  reg.Ints.Get("app.events"),
		statLastKey: reg.Strings.Get("app.last_key"),
	}
}

func (p *panel) HandleEvent(s terminal.Surface, ev event.Event) bool {
	if p.started.IsZero() {
		p.started = ev.At()
	}
	if p.width == 0 {
		p.width, p.height = s.Size()
	}
	p.statEvents.Add(1)

	switch ev.Kind() {
	case event.KindTick:
		p.ticks++
		p.play(audio.CueTick)
	case event.KindInput:
		if isQuit(ev.Payload()) {
			return false
		}
		p.statLastKey.Store(describe(ev.Payload()))
		p.remember(ev)
		p.play(audio.CueKey)
	case event.KindResize:
		p.width, p.height = ev.Payload().Width, ev.Payload().Height
		p.remember(ev)
	case event.KindMouse:
		p.remember(ev)
	case event.KindFault:
		p.fault = ev.Err().Error()
		p.play(audio.CueFault)
	}

	p.draw(s, ev.At())
	return true
}

func (p *panel) play(c audio.Cue) {
	if p.player != nil {
		p.player.Play(c)
	}
}

func (p *panel) remember(ev event.Event) {
	line := fmt.Sprintf("%6.2fs %s", ev.At().Sub(p.started).Seconds(), ev)
	p.history = append(p.history, line)
	if len(p.history) > historySize {
		p.history = p.history[len(p.history)-historySize:]
	}
}

// isQuit matches q, Esc and Ctrl+C; raw mode delivers Ctrl+C as a key, not a signal
func isQuit(ev terminal.Event) bool {
	switch ev.Key {
	case terminal.KeyEscape, terminal.KeyCtrlC:
		return ev.Modifiers == 0
	case terminal.KeyRune:
		return ev.Rune == 'q' && ev.Modifiers == 0
	}
	return false
}

func describe(ev terminal.Event) string {
	name := ev.Key.String()
	if ev.Key == terminal.KeyRune {
		name = fmt.Sprintf("%q", ev.Rune)
	}
	if ev.Modifiers != 0 {
		name = ev.Modifiers.String() + "+" + name
	}
	return name
}

// render builds the panel text for the current state; inner is the content width
func (p *panel) render(now time.Time) string {
	inner := max(p.width-4, 20)
	fit := func(s string) string { return runewidth.Truncate(s, inner, "…") }

	row := func(label, value string) string {
		return labelStyle.Render(label) + runewidth.Truncate(value, max(inner-labelWidth, 1), "…")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("termtick"))
	b.WriteString("\n\n")
	b.WriteString(row("uptime", now.Sub(p.started).Truncate(time.Millisecond).String()) + "\n")
	b.WriteString(row("tick interval", p.interval.String()) + "\n")
	b.WriteString(row("ticks", fmt.Sprint(p.ticks)) + "\n")
	b.WriteString(row("size", fmt.Sprintf("%dx%d", p.width, p.height)) + "\n")
	for _, m := range p.reg.Snapshot() {
		b.WriteString(row(m.Key, m.Value) + "\n")
	}

	b.WriteString("\n")
	for _, h := range p.history {
		b.WriteString(fit(h) + "\n")
	}
	if p.fault != "" {
		b.WriteString(faultStyle.Render(fit("fault: "+p.fault)) + "\n")
	}
	b.WriteString(hintStyle.Render("q / esc / ctrl+c to quit"))

	return boxStyle.Width(inner + 2).Render(b.String())
}

// draw writes every panel row padded to the full width so stale text is overwritten
func (p *panel) draw(s terminal.Surface, now time.Time) {
	lines := strings.Split(p.render(now), "\n")
	for y := 0; y < p.height; y++ {
		line := ""
		if y < len(lines) {
			line = lines[y]
		}
		if pad := p.width - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		s.Draw(0, y, line)
	}
}
