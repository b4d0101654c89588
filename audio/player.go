// Package audio plays short synthesized cues for ticks, keys and faults.
package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	// SampleRate of the output device
	SampleRate = beep.SampleRate(44100)

	bufferDuration = 50 * time.Millisecond
)

// ErrUnknownCue is returned by Play for a cue outside the defined set
var ErrUnknownCue = errors.New("unknown audio cue")

// Player mixes cues into a single speaker stream
// All methods are no-ops until Init succeeds, so a missing device only means silence
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

func NewPlayer() *Player {
	return &Player{mixer: &beep.Mixer{}, volume: 1}
}

// Init opens the audio device; calling it again is a no-op
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(bufferDuration)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// SetVolume sets the linear volume applied to subsequently played cues, clamped to [0, 1]
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(v, 0), 1)
}

// Play queues c on the mixer
func (p *Player) Play(c Cue) error {
	if c < 0 || c >= cueCount {
		return ErrUnknownCue
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil
	}

	s := c.stream(SampleRate, p.volume)
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	return nil
}

// Active returns the number of cues still sounding
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return p.mixer.Len()
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.mixer.Len()
}

// Close silences pending cues and detaches the mixer
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Clear()
	p.initialized = false
}
