// internal/ecgsim/ecgsim.go
package ecgsim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Template geometry. One heartbeat spans templateLen entries regardless of rate.
const (
	templateLen = 200
	pWaveStart  = 7
	qrsStart    = 29
	tWaveStart  = 56

	adcMid = 2048
	adcMax = 4095
)

// Wave shapes in ADC counts relative to baseline.
var (
	pWave   = []int16{5, 10, 15, 20, 25, 30, 30, 30, 25, 20, 15, 10, 5}
	qrsWave = []int16{-10, -20, -30, -50, -80, -100, 500, 1200, 1800, 1200, 500, -100, -80, -50, -30, -20, -10}
	tWave   = []int16{5, 10, 15, 20, 30, 40, 50, 60, 70, 75, 70, 60, 50, 40, 30, 20, 10, 5}
)

// template is one normalized beat, flat outside the P, QRS and T segments.
var template = buildTemplate()

func buildTemplate() [templateLen]int16 {
	var t [templateLen]int16
	copy(t[pWaveStart:], pWave)
	copy(t[qrsStart:], qrsWave)
	copy(t[tWaveStart:], tWave)
	return t
}

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidBPM        = errors.New("heart rate out of range")
	ErrInvalidHum        = errors.New("hum frequency must be below Nyquist")
)

// Config controls the synthetic waveform.
type Config struct {
	SampleRate float64 // Hz
	BPM        float64

	WanderAmplitude float64 // respiration baseline wander in counts
	WanderFreq      float64 // Hz
	HumAmplitude    float64 // powerline interference in counts
	HumFreq         float64 // Hz, 50 or 60
	NoiseAmplitude  float64 // uniform muscle noise spans [-NoiseAmplitude, NoiseAmplitude)

	Seed uint64
}

// DefaultConfig returns a 60 BPM waveform at 360 Hz with wander, 50 Hz hum and noise.
func DefaultConfig() Config {
	return Config{
		SampleRate:      360,
		BPM:             60,
		WanderAmplitude: 150,
		WanderFreq:      0.5,
		HumAmplitude:    30,
		HumFreq:         50,
		NoiseAmplitude:  20,
		Seed:            1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if c.BPM < 20 || c.BPM > 300 {
		return fmt.Errorf("%w: %v (must be 20-300)", ErrInvalidBPM, c.BPM)
	}
	if c.HumAmplitude != 0 && c.HumFreq >= c.SampleRate/2 {
		return fmt.Errorf("%w: %v Hz at %v Hz sampling", ErrInvalidHum, c.HumFreq, c.SampleRate)
	}
	return nil
}

// Generator produces a deterministic synthetic ECG for a given seed.
// It is not safe for concurrent use.
type Generator struct {
	cfg Config
	rng *rand.Rand

	phase       float64 // template position in [0, templateLen)
	phaseInc    float64
	wanderPhase float64
	humPhase    float64
}

// New creates a generator from cfg.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg}
	g.Reset()
	return g, nil
}

// Reset rewinds every phase and reseeds the noise source.
func (g *Generator) Reset() {
	samplesPerBeat := g.cfg.SampleRate * 60 / g.cfg.BPM
	g.phaseInc = templateLen / samplesPerBeat
	g.phase = 0
	g.wanderPhase = 0
	g.humPhase = 0
	g.rng = rand.New(rand.NewPCG(g.cfg.Seed, g.cfg.Seed^0x9e3779b97f4a7c15))
}

// SetBPM changes the heart rate without restarting the beat in progress.
func (g *Generator) SetBPM(bpm float64) error {
	if bpm < 20 || bpm > 300 {
		return fmt.Errorf("%w: %v (must be 20-300)", ErrInvalidBPM, bpm)
	}
	g.cfg.BPM = bpm
	g.phaseInc = templateLen * bpm / (g.cfg.SampleRate * 60)
	return nil
}

// Config returns the active configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Next returns the next 12-bit sample.
func (g *Generator) Next() uint16 {
	g.phase += g.phaseInc
	for g.phase >= templateLen {
		g.phase -= templateLen
	}
	v := float64(template[int(g.phase)])

	v += g.cfg.WanderAmplitude * math.Sin(g.wanderPhase)
	g.wanderPhase = advance(g.wanderPhase, g.cfg.WanderFreq, g.cfg.SampleRate)

	v += g.cfg.HumAmplitude * math.Sin(g.humPhase)
	g.humPhase = advance(g.humPhase, g.cfg.HumFreq, g.cfg.SampleRate)

	if g.cfg.NoiseAmplitude > 0 {
		v += (g.rng.Float64()*2 - 1) * g.cfg.NoiseAmplitude
	}

	v += adcMid
	switch {
	case v > adcMax:
		return adcMax
	case v < 0:
		return 0
	}
	return uint16(v)
}

// Fill writes len(dst) consecutive samples into dst.
func (g *Generator) Fill(dst []uint16) {
	for i := range dst {
		dst[i] = g.Next()
	}
}

func advance(phase, freq, fs float64) float64 {
	phase += 2 * math.Pi * freq / fs
	if phase >= 2*math.Pi {
		phase -= 2 * math.Pi
	}
	return phase
}
