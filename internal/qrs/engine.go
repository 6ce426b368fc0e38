// internal/qrs/engine.go
package qrs

// Diagnostics is a snapshot of the intermediate pipeline values for the most recent sample.
type Diagnostics struct {
	DCRemoved   float32
	LowPass     float32
	HighPass    float32
	Derivative  float32
	Squared     float32
	Integrated  float32
	Threshold   float32
	SignalLevel float32
	NoiseLevel  float32
}

// Engine runs the full QRS pipeline one sample at a time.
// All buffers are allocated by New; Process never allocates.
// An Engine is not safe for concurrent use; it belongs to the consumer loop.
type Engine struct {
	tick uint32

	dc    dcRemover
	lp    lowPass
	hp    highPass
	deriv derivative
	integ integrator
	det   detector

	last Diagnostics
}

// New returns an initialized engine.
func New() *Engine {
	e := &Engine{
		lp: newLowPass(),
		hp: newHighPass(),
	}
	e.Init()
	return e
}

// Init zeroes every filter history, the tick counter and the BPM estimate,
// and seeds the detector levels.
func (e *Engine) Init() {
	e.tick = 0
	e.dc.reset()
	e.lp.reset()
	e.hp.reset()
	e.deriv.reset()
	e.integ.reset()
	e.det.reset()
	e.last = Diagnostics{
		Threshold:   e.det.threshold,
		SignalLevel: e.det.signalLevel,
		NoiseLevel:  e.det.noiseLevel,
	}
}

// Process feeds one 12-bit sample through the pipeline and reports whether a beat
// was confirmed. The confirmed beat belongs to the previous tick.
func (e *Engine) Process(raw uint16) bool {
	e.tick++

	x := float32(raw) - ADCMidScale
	dc := e.dc.step(x)
	lp := e.lp.step(dc)
	hp := e.hp.step(lp)
	d := e.deriv.step(hp)
	sq := d * d
	integrated := e.integ.step(sq)

	beat := e.det.step(e.tick, integrated)

	e.last = Diagnostics{
		DCRemoved:   dc,
		LowPass:     lp,
		HighPass:    hp,
		Derivative:  d,
		Squared:     sq,
		Integrated:  integrated,
		Threshold:   e.det.threshold,
		SignalLevel: e.det.signalLevel,
		NoiseLevel:  e.det.noiseLevel,
	}
	return beat
}

// BPM returns the smoothed heart rate, 0 until the first plausible interval.
func (e *Engine) BPM() int {
	return e.det.bpm
}

// ClearBPM drops the heart-rate estimate, e.g. while the electrodes are off.
// Filter and detector state is kept.
func (e *Engine) ClearBPM() {
	e.det.clearBPM()
}

// Tick returns the number of samples processed since Init, modulo 2^32.
func (e *Engine) Tick() uint32 {
	return e.tick
}

// LastBeatTick returns the tick of the most recent accepted beat.
func (e *Engine) LastBeatTick() uint32 {
	return e.det.lastBeatTick
}

// Diagnostics returns the pipeline values for the latest sample.
func (e *Engine) Diagnostics() Diagnostics {
	return e.last
}
