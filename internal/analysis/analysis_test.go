// internal/analysis/analysis_test.go
package analysis

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ColonelBlimp/qrsdetect/internal/ecgsim"
)

const testFs = 360.0

func sine(freq, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testFs)
	}
	return out
}

func simulate(t *testing.T, cfg ecgsim.Config, seconds int) []uint16 {
	t.Helper()
	g, err := ecgsim.New(cfg)
	require.NoError(t, err)
	out := make([]uint16, seconds*int(testFs))
	g.Fill(out)
	return out
}

func TestNewToneMeter_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		freq  float64
		fs    float64
		block int
		want  error
	}{
		{"zero block", 50, testFs, 0, ErrInvalidBlockSize},
		{"zero rate", 50, 0, 360, ErrInvalidSampleRate},
		{"above nyquist", 200, testFs, 360, ErrInvalidFrequency},
		{"zero freq", 0, testFs, 360, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToneMeter(tt.freq, tt.fs, tt.block)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToneMeter_Amplitude(t *testing.T) {
	m, err := NewToneMeter(50, testFs, 360)
	require.NoError(t, err)

	got, err := m.Amplitude(sine(50, 30, 360))
	require.NoError(t, err)
	assert.InDelta(t, 30, got, 0.5)

	got, err = m.Amplitude(sine(10, 30, 360))
	require.NoError(t, err)
	assert.Less(t, got, 1.0)

	_, err = m.Amplitude(make([]float64, 100))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestToneMeter_MeanAmplitude(t *testing.T) {
	m, err := NewToneMeter(60, testFs, 360)
	require.NoError(t, err)

	got, err := m.MeanAmplitude(sine(60, 12, 5*360+100))
	require.NoError(t, err)
	assert.InDelta(t, 12, got, 0.5)
	assert.Equal(t, 60.0, m.Frequency())
	assert.Equal(t, 360, m.BlockSize())
}

func TestComputeRR(t *testing.T) {
	tests := []struct {
		name  string
		beats []uint32
		want  RRStats
	}{
		{
			"steady 60 BPM",
			[]uint32{0, 360, 720, 1080},
			RRStats{Intervals: 3, MeanRR: 1000, MinRR: 1000, MaxRR: 1000, MeanBPM: 60},
		},
		{
			"alternating",
			[]uint32{0, 300, 660, 960},
			RRStats{Intervals: 3, MeanRR: 888.889, MinRR: 833.333, MaxRR: 1000, SDNN: 96.225, RMSSD: 166.667, MeanBPM: 67.5},
		},
		{
			"across counter wrap",
			[]uint32{math.MaxUint32 - 100, 259},
			RRStats{Intervals: 1, MeanRR: 1000, MinRR: 1000, MaxRR: 1000, MeanBPM: 60},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeRR(tt.beats, testFs)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Intervals, got.Intervals)
			assert.InDelta(t, tt.want.MeanRR, got.MeanRR, 0.01)
			assert.InDelta(t, tt.want.MinRR, got.MinRR, 0.01)
			assert.InDelta(t, tt.want.MaxRR, got.MaxRR, 0.01)
			assert.InDelta(t, tt.want.SDNN, got.SDNN, 0.01)
			assert.InDelta(t, tt.want.RMSSD, got.RMSSD, 0.01)
			assert.InDelta(t, tt.want.MeanBPM, got.MeanBPM, 0.01)
		})
	}
}

func TestComputeRR_TooFewBeats(t *testing.T) {
	_, err := ComputeRR([]uint32{42}, testFs)
	assert.ErrorIs(t, err, ErrTooFewBeats)
	_, err = ComputeRR(nil, testFs)
	assert.ErrorIs(t, err, ErrTooFewBeats)
}

func TestPowerSpectrum(t *testing.T) {
	x := sine(10, 100, 3600)
	for i := range x {
		x[i] += 500 // offset is removed before the transform
	}
	sp := PowerSpectrum(x, testFs)

	assert.InDelta(t, 10, sp.Peak(0.5), 0.2)
	assert.Greater(t, sp.BandPower(5, 15)/sp.Total(), 0.99)
	assert.Less(t, sp.BandPower(0, 1)/sp.Total(), 0.001)
}

func TestPowerSpectrum_TooShort(t *testing.T) {
	sp := PowerSpectrum([]float64{1}, testFs)
	assert.Empty(t, sp.Freqs)
	assert.Zero(t, sp.Total())
}

func TestRun_NoSamples(t *testing.T) {
	_, err := Run(nil, Options{})
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestRun_SimulatedRecording(t *testing.T) {
	cfg := ecgsim.DefaultConfig()
	cfg.BPM = 72
	samples := simulate(t, cfg, 60)

	rep, err := Run(samples, Options{HumFreq: 50, Trace: true})
	require.NoError(t, err)

	assert.Equal(t, len(samples), rep.Samples)
	assert.Len(t, rep.Trace, len(samples))
	assert.InDelta(t, 72, len(rep.Beats), 5)
	assert.InDelta(t, 72, rep.FinalBPM, 5)
	assert.Equal(t, "Normal", rep.Status)
	require.NotNil(t, rep.RR)
	assert.InDelta(t, 72, rep.RR.MeanBPM, 5)
	assert.Greater(t, rep.QRSRatio, 0.0)

	for i, p := range rep.Trace {
		if p.Beat {
			assert.Contains(t, rep.Beats, p.Tick-1, "trace beat at index %d missing from beat list", i)
		}
	}

	quiet := cfg
	quiet.HumAmplitude = 0
	quietRep, err := Run(simulate(t, quiet, 60), Options{HumFreq: 50})
	require.NoError(t, err)
	assert.Greater(t, rep.HumLevel, quietRep.HumLevel)
	assert.Nil(t, quietRep.Trace)
}

func TestReport_WriteText(t *testing.T) {
	rep, err := Run(simulate(t, ecgsim.DefaultConfig(), 20), Options{HumFreq: 50})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "Heart rate:")
	assert.Contains(t, out, "SDNN:")
	assert.Contains(t, out, "Mains hum:")
}
