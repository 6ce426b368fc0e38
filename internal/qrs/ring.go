// internal/qrs/ring.go
package qrs

// Ring is a fixed-capacity history of float32 samples.
// It never grows; pushing onto a full ring overwrites the oldest value.
type Ring struct {
	buf []float32
	pos int // index of the next write
}

// NewRing allocates a ring holding capacity samples, all zero.
// The capacity must be positive.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float32, capacity)}
}

// Push stores v as the newest value.
func (r *Ring) Push(v float32) {
	r.buf[r.pos] = v
	r.pos++
	if r.pos == len(r.buf) {
		r.pos = 0
	}
}

// Ago returns the value written d pushes ago; Ago(0) is the newest value.
// d must be in [0, Len()-1]. Positions never written read as zero.
func (r *Ring) Ago(d int) float32 {
	n := len(r.buf)
	i := (r.pos - 1 - d) % n
	if i < 0 {
		i += n
	}
	return r.buf[i]
}

// Len returns the ring capacity.
func (r *Ring) Len() int {
	return len(r.buf)
}

// Reset zeroes the history and rewinds the write cursor.
func (r *Ring) Reset() {
	clear(r.buf)
	r.pos = 0
}
