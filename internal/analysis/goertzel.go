// internal/analysis/goertzel.go
package analysis

import (
	"errors"
	"math"
)

var (
	ErrInvalidBlockSize    = errors.New("block size must be positive")
	ErrInvalidSampleRate   = errors.New("sample rate must be positive")
	ErrInvalidFrequency    = errors.New("target frequency must be positive and less than Nyquist frequency")
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// ToneMeter measures the amplitude of a single frequency with the Goertzel recurrence.
// It is used to estimate powerline interference in a recording.
type ToneMeter struct {
	freq      float64
	blockSize int
	coeff     float64 // 2cos(omega)
	scale     float64 // 2/N, so a pure sine of amplitude A reads A
}

// NewToneMeter measures freq Hz in blocks of blockSize samples taken at sampleRate.
func NewToneMeter(freq, sampleRate float64, blockSize int) (*ToneMeter, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if freq <= 0 || freq >= sampleRate/2 {
		return nil, ErrInvalidFrequency
	}
	omega := 2 * math.Pi * freq / sampleRate
	return &ToneMeter{
		freq:      freq,
		blockSize: blockSize,
		coeff:     2 * math.Cos(omega),
		scale:     2 / float64(blockSize),
	}, nil
}

// Amplitude returns the tone amplitude over the first BlockSize samples.
func (m *ToneMeter) Amplitude(samples []float64) (float64, error) {
	if len(samples) < m.blockSize {
		return 0, ErrInsufficientSamples
	}
	var s1, s2 float64
	for _, x := range samples[:m.blockSize] {
		s0 := x + m.coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - m.coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * m.scale, nil
}

// MeanAmplitude averages Amplitude over every whole block in samples.
func (m *ToneMeter) MeanAmplitude(samples []float64) (float64, error) {
	blocks := len(samples) / m.blockSize
	if blocks == 0 {
		return 0, ErrInsufficientSamples
	}
	var sum float64
	for b := 0; b < blocks; b++ {
		a, _ := m.Amplitude(samples[b*m.blockSize:])
		sum += a
	}
	return sum / float64(blocks), nil
}

// Frequency returns the measured frequency in Hz.
func (m *ToneMeter) Frequency() float64 {
	return m.freq
}

// BlockSize returns the samples per measurement.
func (m *ToneMeter) BlockSize() int {
	return m.blockSize
}
