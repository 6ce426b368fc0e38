// internal/qrs/stages.go
package qrs

// dcRemover is the first-order high-pass y[n] = a*y[n-1] + (x[n] - x[n-1]).
type dcRemover struct {
	prevIn  float32
	prevOut float32
}

func (f *dcRemover) step(x float32) float32 {
	y := DCAlpha*f.prevOut + (x - f.prevIn)
	f.prevIn = x
	f.prevOut = y
	return y
}

func (f *dcRemover) reset() {
	*f = dcRemover{}
}

// lowPass is the integer-coefficient recursive low-pass
// y[n] = 2y[n-1] - y[n-2] + x[n] - 2x[n-M] + x[n-2M].
type lowPass struct {
	y1, y2 float32
	hist   *Ring
}

func newLowPass() lowPass {
	return lowPass{hist: NewRing(lowPassHistory)}
}

func (f *lowPass) step(x float32) float32 {
	f.hist.Push(x)
	y := 2*f.y1 - f.y2 + x - 2*f.hist.Ago(LowPassDelay) + f.hist.Ago(2*LowPassDelay)
	f.y2 = f.y1
	f.y1 = y
	return y
}

func (f *lowPass) reset() {
	f.y1, f.y2 = 0, 0
	f.hist.Reset()
}

// highPass is an all-pass delay minus a 2N-point moving average, written recursively:
// y[n] = y[n-1] - v[n]/2N + v[n-N] - v[n-N-1] + v[n-2N]/2N.
type highPass struct {
	y1   float32
	hist *Ring
}

func newHighPass() highPass {
	return highPass{hist: NewRing(highPassHistory)}
}

func (f *highPass) step(v float32) float32 {
	const span = 2 * HighPassDelay
	f.hist.Push(v)
	y := f.y1 - v/span + f.hist.Ago(HighPassDelay) - f.hist.Ago(HighPassDelay+1) + f.hist.Ago(span)/span
	f.y1 = y
	return y
}

func (f *highPass) reset() {
	f.y1 = 0
	f.hist.Reset()
}

// derivative is the five-point slope estimate (2x[n] + x[n-1] - x[n-3] - 2x[n-4]) / 8.
type derivative struct {
	taps [DerivativeTaps]float32
}

func (f *derivative) step(x float32) float32 {
	copy(f.taps[1:], f.taps[:DerivativeTaps-1])
	f.taps[0] = x
	return (2*f.taps[0] + f.taps[1] - f.taps[3] - 2*f.taps[4]) / 8
}

func (f *derivative) reset() {
	f.taps = [DerivativeTaps]float32{}
}

// integrator is a moving-window sum kept in O(1) per sample.
// sum always equals the total of win, up to float rounding.
type integrator struct {
	win [IntegrationWindow]float32
	idx int
	sum float32
}

func (f *integrator) step(x float32) float32 {
	f.sum -= f.win[f.idx]
	f.win[f.idx] = x
	f.sum += x
	f.idx++
	if f.idx == IntegrationWindow {
		f.idx = 0
	}
	// float rounding can leave the sum of a non-negative window a hair below zero;
	// only the output is clamped, the running sum keeps its residue
	return max(f.sum, 0) / IntegrationWindow
}

func (f *integrator) reset() {
	*f = integrator{}
}
