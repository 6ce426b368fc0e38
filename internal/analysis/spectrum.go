// internal/analysis/spectrum.go
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is a one-sided power spectrum.
type Spectrum struct {
	Freqs []float64 // Hz
	Power []float64
}

// PowerSpectrum computes the Hann-windowed power spectrum of x after removing its mean.
func PowerSpectrum(x []float64, sampleRate float64) Spectrum {
	n := len(x)
	if n < 2 {
		return Spectrum{}
	}

	mean := floats.Sum(x) / float64(n)
	windowed := make([]float64, n)
	for i, v := range x {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		windowed[i] = (v - mean) * w
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	sp := Spectrum{
		Freqs: make([]float64, len(coeffs)),
		Power: make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		sp.Freqs[i] = fft.Freq(i) * sampleRate
		a := cmplx.Abs(c)
		sp.Power[i] = a * a
	}
	return sp
}

// BandPower sums the power of bins with lo <= f < hi.
func (s Spectrum) BandPower(lo, hi float64) float64 {
	var p float64
	for i, f := range s.Freqs {
		if f >= lo && f < hi {
			p += s.Power[i]
		}
	}
	return p
}

// Total returns the power over all bins.
func (s Spectrum) Total() float64 {
	return floats.Sum(s.Power)
}

// Peak returns the frequency of the strongest bin above minFreq.
func (s Spectrum) Peak(minFreq float64) float64 {
	best, bestF := -1.0, 0.0
	for i, f := range s.Freqs {
		if f >= minFreq && s.Power[i] > best {
			best, bestF = s.Power[i], f
		}
	}
	return bestF
}
