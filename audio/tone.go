package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave is an oscillator shape
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// tone is a fixed-length oscillator; it drains after duration samples
type tone struct {
	freq   float64
	phase  float64
	length int
	pos    int
	wave   Wave
	rate   beep.SampleRate
}

func newTone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) *tone {
	return &tone{freq: freq, length: rate.N(d), wave: wave, rate: rate}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.length {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.length {
			return i, true
		}

		var v float64
		switch t.wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case WaveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (t.phase - 0.5)
		case WaveNoise:
			v = rand.Float64()*2 - 1
		}
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// shape applies a linear attack and release over a stream of known length
type shape struct {
	s       beep.Streamer
	pos     int
	attack  int
	release int
	total   int
}

func newShape(s beep.Streamer, total, attack, release time.Duration, rate beep.SampleRate) *shape {
	return &shape{s: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(total)}
}

func (e *shape) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		vol := 1.0
		switch {
		case e.pos < e.attack:
			vol = float64(e.pos) / float64(e.attack)
		case e.release > 0 && e.pos >= releaseStart:
			vol = math.Max(0, float64(e.total-e.pos)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *shape) Err() error { return e.s.Err() }

// gain scales s linearly; zero or less is silence
func gain(s beep.Streamer, g float64) beep.Streamer {
	if g <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(g)}
}

// note is a shaped tone
func note(freq float64, d, attack, release time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return newShape(newTone(freq, d, wave, rate), d, attack, release, rate)
}
