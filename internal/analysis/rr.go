// internal/analysis/rr.go
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrTooFewBeats = errors.New("at least two beats are needed for interval statistics")

// RRStats summarizes beat-to-beat intervals. Durations are in milliseconds.
type RRStats struct {
	Intervals int     `json:"intervals"`
	MeanRR    float64 `json:"mean_rr_ms"`
	MinRR     float64 `json:"min_rr_ms"`
	MaxRR     float64 `json:"max_rr_ms"`
	SDNN      float64 `json:"sdnn_ms"`
	RMSSD     float64 `json:"rmssd_ms"`
	MeanBPM   float64 `json:"mean_bpm"`
}

// Intervals converts beat ticks to RR intervals in milliseconds.
// Tick differences use unsigned arithmetic so a counter wrap is harmless.
func Intervals(beats []uint32, sampleRate float64) []float64 {
	if len(beats) < 2 {
		return nil
	}
	rr := make([]float64, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		rr[i-1] = float64(beats[i]-beats[i-1]) * 1000 / sampleRate
	}
	return rr
}

// ComputeRR returns interval statistics for the beat ticks.
// SDNN is the sample standard deviation and needs two intervals; RMSSD needs two as well.
func ComputeRR(beats []uint32, sampleRate float64) (RRStats, error) {
	rr := Intervals(beats, sampleRate)
	if len(rr) == 0 {
		return RRStats{}, ErrTooFewBeats
	}

	st := RRStats{
		Intervals: len(rr),
		MeanRR:    stat.Mean(rr, nil),
		MinRR:     floats.Min(rr),
		MaxRR:     floats.Max(rr),
	}
	st.MeanBPM = 60000 / st.MeanRR

	if len(rr) >= 2 {
		st.SDNN = stat.StdDev(rr, nil)

		diffs := make([]float64, len(rr)-1)
		floats.SubTo(diffs, rr[1:], rr[:len(rr)-1])
		st.RMSSD = math.Sqrt(floats.Dot(diffs, diffs) / float64(len(diffs)))
	}
	return st, nil
}
