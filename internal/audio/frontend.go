// internal/audio/frontend.go
package audio

import (
	"errors"
	"math"
	"sync/atomic"
)

const (
	adcMid = 2048
	adcMax = 4095
)

var ErrInvalidRate = errors.New("input rate must be at least the output rate")

// FrontEnd turns a captured audio stream into 12-bit ECG samples.
//
// Input frames are box-averaged down to the output rate and scaled so that
// [-1, 1] spans the ADC range. The newest sample is held for Read, like an ADC
// sampled on a timer. A run of near-silent output samples flags the leads as off.
type FrontEnd struct {
	step    float64 // input samples per output sample
	gain    float64
	floor   float64 // |x| below this counts as silence
	offRun  int     // silent output samples before leads-off
	acc     float64
	count   int
	pos     float64
	silent  int
	latest  atomic.Uint32
	off     atomic.Bool
	emitted atomic.Uint64
}

// FrontEndConfig configures a FrontEnd.
type FrontEndConfig struct {
	InputRate  float64
	OutputRate float64
	Gain       float64 // applied before scaling; 1 maps full scale to the ADC rails
	// SilenceFloor and SilenceSamples tune leads-off detection; zero disables it.
	SilenceFloor   float64
	SilenceSamples int
}

// NewFrontEnd validates cfg and returns a front end reading mid-scale until fed.
func NewFrontEnd(cfg FrontEndConfig) (*FrontEnd, error) {
	if cfg.OutputRate <= 0 || cfg.InputRate < cfg.OutputRate {
		return nil, ErrInvalidRate
	}
	gain := cfg.Gain
	if gain == 0 {
		gain = 1
	}
	f := &FrontEnd{
		step:   cfg.InputRate / cfg.OutputRate,
		gain:   gain,
		floor:  cfg.SilenceFloor,
		offRun: cfg.SilenceSamples,
	}
	f.latest.Store(adcMid)
	return f, nil
}

// Feed consumes captured frames. It is meant to be the capture callback and must
// only be called from one goroutine.
func (f *FrontEnd) Feed(samples []float32) {
	for _, s := range samples {
		f.acc += float64(s)
		f.count++
		f.pos++
		if f.pos < f.step {
			continue
		}
		f.pos -= f.step
		f.emit(f.acc / float64(f.count))
		f.acc = 0
		f.count = 0
	}
}

func (f *FrontEnd) emit(mean float64) {
	f.latest.Store(uint32(toADC(mean * f.gain)))
	f.emitted.Add(1)

	if f.offRun <= 0 {
		return
	}
	if math.Abs(mean) < f.floor {
		if f.silent < f.offRun {
			f.silent++
		}
	} else {
		f.silent = 0
	}
	f.off.Store(f.silent >= f.offRun)
}

// Read returns the newest decimated sample.
func (f *FrontEnd) Read() (uint16, error) {
	return uint16(f.latest.Load()), nil
}

// LeadsOff reports whether the input has been silent long enough to assume
// disconnected electrodes.
func (f *FrontEnd) LeadsOff() bool {
	return f.off.Load()
}

// Emitted returns the number of output samples produced so far.
func (f *FrontEnd) Emitted() uint64 {
	return f.emitted.Load()
}

func toADC(x float64) uint16 {
	v := math.Round(adcMid + x*adcMid)
	switch {
	case v < 0:
		return 0
	case v > adcMax:
		return adcMax
	}
	return uint16(v)
}
