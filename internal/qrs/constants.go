// internal/qrs/constants.go
package qrs

// Sampling and front-end constants.
// Every sample-count constant below is derived from SampleRate; the filter delays are the
// classic 200 Hz Pan-Tompkins delays (6 and 16) rescaled to 360 Hz and rounded.
const (
	// SampleRate is the fixed ADC sampling rate in Hz
	SampleRate = 360
	// ADCMidScale centers the unsigned 12-bit sample before DC removal
	ADCMidScale = 2048
	// ADCMax is the largest value the 12-bit front end produces
	ADCMax = 4095
)

// Filter constants.
const (
	// DCAlpha is the pole of the first-order DC removal filter
	DCAlpha = 0.995

	// LowPassDelay is M in y[n] = 2y[n-1] - y[n-2] + x[n] - 2x[n-M] + x[n-2M] (round(6*1.8))
	LowPassDelay = 11
	// HighPassDelay is N in the high-pass difference equation (round(16*1.8))
	HighPassDelay = 29

	// lowPassHistory and highPassHistory hold every tap up to x[n-2*delay]
	lowPassHistory  = 2*LowPassDelay + 1
	highPassHistory = 2*HighPassDelay + 1

	// DerivativeTaps is the length of the five-point derivative shift register
	DerivativeTaps = 5

	// IntegrationWindow is the moving-window integrator length, 150 ms of samples
	IntegrationWindow = 54
)

// Detector constants.
const (
	// RefractorySamples is the 200 ms window after a beat in which no beat is accepted
	RefractorySamples = 72
	// NoBeatTimeoutSamples is 15 s without a beat, after which the threshold starts decaying
	NoBeatTimeoutSamples = 15 * SampleRate
	// DecayIntervalSamples rate-limits threshold halving to once per second
	DecayIntervalSamples = SampleRate

	// LevelWeightNew is the EMA weight given to a new peak in signal/noise level tracking
	LevelWeightNew = 0.125
	// LevelWeightOld is the weight kept by the running level (1 - LevelWeightNew)
	LevelWeightOld = 0.875
	// ThresholdFraction places the threshold between noise and signal level
	ThresholdFraction = 0.25
	// DecayFactor scales the levels and threshold on each decay step
	DecayFactor = 0.5

	// BPMWeightNew is the EMA weight given to a new instantaneous BPM
	BPMWeightNew = 0.1
	// BPMWeightOld is the weight kept by the smoothed BPM (1 - BPMWeightNew)
	BPMWeightOld = 0.9
	// MinBPM and MaxBPM bound (exclusively) the instantaneous rates accepted into the estimate
	MinBPM = 40
	MaxBPM = 200

	// SecondsPerMinute converts samples between beats to beats per minute
	SecondsPerMinute = 60
)

// Seed values used by Init so the detector locks on without a long warm-up.
const (
	InitialSignalLevel = 2000
	InitialNoiseLevel  = 0
	InitialThreshold   = 1000
)
