package audio

import (
	"time"

	"github.com/gopxl/beep"
)

// Cue is a short feedback sound
type Cue int

const (
	CueTick  Cue = iota // metronome click on tick
	CueKey              // key press blip
	CueFault            // descending two-note alarm
	cueCount
)

const (
	tickDuration   = 15 * time.Millisecond
	keyDuration    = 40 * time.Millisecond
	faultNote1     = 120 * time.Millisecond
	faultNote2     = 220 * time.Millisecond
	defaultRelease = 8 * time.Millisecond
)

func (c Cue) String() string {
	switch c {
	case CueTick:
		return "tick"
	case CueKey:
		return "key"
	case CueFault:
		return "fault"
	}
	return "unknown"
}

// Duration returns the cue length
func (c Cue) Duration() time.Duration {
	switch c {
	case CueTick:
		return tickDuration
	case CueKey:
		return keyDuration
	case CueFault:
		return faultNote1 + faultNote2
	}
	return 0
}

// stream builds a fresh streamer for c at rate, scaled by volume; nil for unknown cues
func (c Cue) stream(rate beep.SampleRate, volume float64) beep.Streamer {
	switch c {
	case CueTick:
		click := note(1200, tickDuration, time.Millisecond, 10*time.Millisecond, WaveSine, rate)
		return gain(beep.Take(rate.N(tickDuration), click), 0.25*volume)

	case CueKey:
		body := note(660, keyDuration, 2*time.Millisecond, 20*time.Millisecond, WaveSquare, rate)
		hiss := note(0, keyDuration, 0, 30*time.Millisecond, WaveNoise, rate)
		mixed := beep.Mix(gain(body, 0.8), gain(hiss, 0.1))
		return gain(beep.Take(rate.N(keyDuration), mixed), 0.3*volume)

	case CueFault:
		hi := note(440, faultNote1, 5*time.Millisecond, defaultRelease, WaveSaw, rate)
		lo := note(220, faultNote2, 5*time.Millisecond, 60*time.Millisecond, WaveSaw, rate)
		return gain(beep.Seq(hi, lo), 0.5*volume)
	}
	return nil
}
