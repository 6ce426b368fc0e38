// internal/sampler/sources.go
package sampler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ColonelBlimp/qrsdetect/internal/ecgsim"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
)

var ErrNoSamples = errors.New("recording contains no samples")

// LeadSwitch is a leads-off indicator that can be flipped from another goroutine.
type LeadSwitch struct {
	off atomic.Bool
}

// Set marks the leads as disconnected (true) or attached (false).
func (l *LeadSwitch) Set(off bool) { l.off.Store(off) }

// LeadsOff reports the current state.
func (l *LeadSwitch) LeadsOff() bool { return l.off.Load() }

// SimSource reads from a synthetic ECG generator. It never ends.
type SimSource struct {
	LeadSwitch
	gen *ecgsim.Generator
}

// NewSimSource wraps gen.
func NewSimSource(gen *ecgsim.Generator) *SimSource {
	return &SimSource{gen: gen}
}

func (s *SimSource) Read() (uint16, error) {
	return s.gen.Next(), nil
}

// SliceSource replays recorded samples, optionally looping.
type SliceSource struct {
	LeadSwitch
	samples []uint16
	pos     int
	loop    bool
}

// NewSliceSource replays samples once, or forever when loop is set.
func NewSliceSource(samples []uint16, loop bool) (*SliceSource, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return &SliceSource{samples: samples, loop: loop}, nil
}

func (s *SliceSource) Read() (uint16, error) {
	if s.pos == len(s.samples) {
		if !s.loop {
			return 0, io.EOF
		}
		s.pos = 0
	}
	v := s.samples[s.pos]
	s.pos++
	return v, nil
}

// LoadSamples parses a recording: one sample per line, either a bare integer or a
// "raw,bpm" telemetry line. Blank lines and lines starting with '#' are skipped.
// Values are clamped to the 12-bit range.
func LoadSamples(r io.Reader) ([]uint16, error) {
	var out []uint16
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var v float64
		if strings.Contains(text, ",") {
			rd, err := telemetry.ParsePrimary(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v = rd.Raw
		} else {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v = f
		}
		out = append(out, clampADC(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoSamples
	}
	return out, nil
}

func clampADC(v float64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > qrs.ADCMax:
		return qrs.ADCMax
	}
	return uint16(v + 0.5)
}
