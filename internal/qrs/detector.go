// internal/qrs/detector.go
package qrs

import "math"

// detector classifies local maxima of the integrated signal as beats or noise
// and keeps the adaptive threshold and heart-rate estimate.
type detector struct {
	prev2 float32
	prev1 float32

	signalLevel float32
	noiseLevel  float32
	threshold   float32

	lastBeatTick  uint32
	lastDecayTick uint32

	// bpm is integer state; each update rounds the EMA, so a steady rate settles
	// up to 4 BPM short of the true value.
	bpm int
}

func (d *detector) reset() {
	*d = detector{
		signalLevel: InitialSignalLevel,
		noiseLevel:  InitialNoiseLevel,
		threshold:   InitialThreshold,
	}
}

// step consumes the integrated value for tick and reports whether the sample
// one tick earlier was accepted as a beat.
func (d *detector) step(tick uint32, current float32) bool {
	beat := false
	if d.prev1 > d.prev2 && d.prev1 > current {
		beat = d.classify(tick-1, d.prev1)
	}
	d.decay(tick)
	d.prev2 = d.prev1
	d.prev1 = current
	return beat
}

func (d *detector) classify(peakTick uint32, peak float32) bool {
	// unsigned subtraction stays correct across one counter wrap
	if peakTick-d.lastBeatTick <= RefractorySamples {
		d.updateNoise(peak)
		return false
	}
	if peak > d.threshold {
		d.acceptBeat(peakTick, peak)
		d.updateThreshold()
		return true
	}
	d.updateNoise(peak)
	return false
}

func (d *detector) updateNoise(peak float32) {
	d.noiseLevel = LevelWeightNew*peak + LevelWeightOld*d.noiseLevel
	d.updateThreshold()
}

func (d *detector) updateThreshold() {
	d.threshold = d.noiseLevel + ThresholdFraction*(d.signalLevel-d.noiseLevel)
}

// acceptBeat records a beat at peakTick and folds its interval into the BPM estimate.
func (d *detector) acceptBeat(peakTick uint32, peak float32) {
	d.signalLevel = LevelWeightNew*peak + LevelWeightOld*d.signalLevel

	duration := peakTick - d.lastBeatTick
	if duration > 0 {
		instant := SecondsPerMinute * SampleRate / float32(duration)
		if instant > MinBPM && instant < MaxBPM {
			d.bpm = int(math.Round(float64(BPMWeightOld*float32(d.bpm) + BPMWeightNew*instant)))
		}
	}
	d.lastBeatTick = peakTick
}

// decay halves the threshold once per DecayIntervalSamples while no beat has been
// seen for NoBeatTimeoutSamples. Inside the timeout window the decay timer follows
// the current tick. Signal and noise levels are left alone, so the next noise peak
// or beat recomputes the threshold from them.
func (d *detector) decay(tick uint32) {
	if tick-d.lastBeatTick <= NoBeatTimeoutSamples {
		d.lastDecayTick = tick
		return
	}
	if tick-d.lastDecayTick < DecayIntervalSamples {
		return
	}
	d.threshold *= DecayFactor
	d.lastDecayTick = tick
}

func (d *detector) clearBPM() {
	d.bpm = 0
}
