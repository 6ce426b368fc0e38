// internal/analysis/report.go
package analysis

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
)

// QRS energy band used for the signal quality ratio, Hz.
const (
	qrsBandLow  = 5
	qrsBandHigh = 15
)

var ErrNoSamples = errors.New("no samples to analyze")

// TracePoint is the pipeline state for one sample of an offline run.
type TracePoint struct {
	Tick       uint32
	Raw        uint16
	HighPass   float32
	Integrated float32
	Threshold  float32
	Beat       bool // the beat belongs to Tick-1
}

// Options tunes an offline run.
type Options struct {
	// HumFreq is the mains frequency to measure, 50 or 60 Hz. Zero skips the measurement.
	HumFreq float64
	// Trace keeps a TracePoint for every sample.
	Trace bool
}

// Report is the result of running a recording through the detector.
type Report struct {
	Samples  int           `json:"samples"`
	Duration time.Duration `json:"duration_ns"`
	Beats    []uint32      `json:"beats"`
	FinalBPM int           `json:"final_bpm"`
	Status   string        `json:"status"`
	RR       *RRStats      `json:"rr,omitempty"`
	HumLevel float64       `json:"hum_level"`
	QRSRatio float64       `json:"qrs_band_ratio"`
	PeakFreq float64       `json:"peak_freq_hz"`
	Trace    []TracePoint  `json:"-"`
}

// Run feeds samples through a fresh engine at the engine's sample rate.
func Run(samples []uint16, opts Options) (Report, error) {
	if len(samples) == 0 {
		return Report{}, ErrNoSamples
	}

	e := qrs.New()
	rep := Report{
		Samples:  len(samples),
		Duration: time.Duration(len(samples)) * time.Second / qrs.SampleRate,
	}
	if opts.Trace {
		rep.Trace = make([]TracePoint, 0, len(samples))
	}

	for _, s := range samples {
		beat := e.Process(s)
		if beat {
			rep.Beats = append(rep.Beats, e.LastBeatTick())
		}
		if opts.Trace {
			d := e.Diagnostics()
			rep.Trace = append(rep.Trace, TracePoint{
				Tick:       e.Tick(),
				Raw:        s,
				HighPass:   d.HighPass,
				Integrated: d.Integrated,
				Threshold:  d.Threshold,
				Beat:       beat,
			})
		}
	}
	rep.FinalBPM = e.BPM()
	rep.Status = telemetry.Classify(rep.FinalBPM).String()

	if rr, err := ComputeRR(rep.Beats, qrs.SampleRate); err == nil {
		rep.RR = &rr
	}

	centered := make([]float64, len(samples))
	for i, s := range samples {
		centered[i] = float64(s) - qrs.ADCMidScale
	}

	if opts.HumFreq > 0 {
		meter, err := NewToneMeter(opts.HumFreq, qrs.SampleRate, qrs.SampleRate)
		if err != nil {
			return Report{}, fmt.Errorf("hum meter: %w", err)
		}
		if hum, err := meter.MeanAmplitude(centered); err == nil {
			rep.HumLevel = hum
		}
	}

	sp := PowerSpectrum(centered, qrs.SampleRate)
	if total := sp.Total(); total > 0 {
		rep.QRSRatio = sp.BandPower(qrsBandLow, qrsBandHigh) / total
		rep.PeakFreq = sp.Peak(0.5)
	}
	return rep, nil
}

// WriteText prints a human-readable summary.
func (r Report) WriteText(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	p("Samples:        %d (%s)\n", r.Samples, r.Duration.Round(time.Millisecond))
	p("Beats:          %d\n", len(r.Beats))
	p("Heart rate:     %d BPM (%s)\n", r.FinalBPM, r.Status)
	if r.RR != nil {
		p("Mean RR:        %.1f ms (%.1f BPM)\n", r.RR.MeanRR, r.RR.MeanBPM)
		p("RR range:       %.1f - %.1f ms\n", r.RR.MinRR, r.RR.MaxRR)
		p("SDNN:           %.1f ms\n", r.RR.SDNN)
		p("RMSSD:          %.1f ms\n", r.RR.RMSSD)
	}
	if r.HumLevel > 0 {
		p("Mains hum:      %.1f counts\n", r.HumLevel)
	}
	p("QRS band ratio: %.3f\n", r.QRSRatio)
	p("Spectral peak:  %.2f Hz\n", r.PeakFreq)
	return err
}
