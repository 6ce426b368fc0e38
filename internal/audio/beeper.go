// internal/audio/beeper.go
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Beeper plays a short tone on every detected beat.
type Beeper struct {
	sr     beep.SampleRate
	freq   float64
	length int // tone length in samples
	volume float64
}

// NewBeeper initializes the speaker and returns a beeper playing freq Hz for dur.
func NewBeeper(freq float64, dur time.Duration) (*Beeper, error) {
	sr := beep.SampleRate(44100)
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Beeper{sr: sr, freq: freq, length: sr.N(dur), volume: 0.3}, nil
}

// Beep queues one tone. It returns immediately.
func (b *Beeper) Beep() {
	speaker.Play(newTone(b.sr, b.freq, b.length, b.volume))
}

// Close stops playback and releases the output device.
func (b *Beeper) Close() {
	speaker.Clear()
	speaker.Close()
}

// tone is a fixed-length sine burst with a linear fade-out to avoid clicks.
type tone struct {
	step   float64
	phase  float64
	left   int
	total  int
	volume float64
}

func newTone(sr beep.SampleRate, freq float64, length int, volume float64) *tone {
	return &tone{
		step:   2 * math.Pi * freq / float64(sr),
		left:   length,
		total:  length,
		volume: volume,
	}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.left <= 0 {
		return 0, false
	}
	n := min(len(samples), t.left)
	for i := range n {
		env := float64(t.left-i) / float64(t.total)
		v := t.volume * env * math.Sin(t.phase)
		samples[i][0], samples[i][1] = v, v
		t.phase += t.step
	}
	t.left -= n
	return n, true
}

func (t *tone) Err() error { return nil }
