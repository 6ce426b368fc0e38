// internal/telemetry/frame.go
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
)

// debugScale shrinks integrator-domain values so they fit a signed 16-bit plot channel
const debugScale = 4000

var ErrMalformedLine = errors.New("malformed telemetry line")

// Frame is everything known about one processed sample.
type Frame struct {
	Tick     uint32
	Raw      uint16
	BPM      int
	Beat     bool
	LeadsOff bool
	Diag     qrs.Diagnostics
}

// Format selects the line encoding written by a sink.
type Format int

const (
	// FormatPrimary is the "raw,bpm\r\n" line a display client parses
	FormatPrimary Format = iota
	// FormatDebug is a four-channel "raw,filtered,integrated,threshold\r\n" trace for a serial plotter
	FormatDebug
)

// ParseFormat accepts "primary" or "debug".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "":
		return FormatPrimary, nil
	case "debug":
		return FormatDebug, nil
	}
	return 0, fmt.Errorf("unknown telemetry format %q", s)
}

func (f Format) String() string {
	if f == FormatDebug {
		return "debug"
	}
	return "primary"
}

// Append encodes fr in format f onto dst.
func (f Format) Append(dst []byte, fr Frame) []byte {
	if f == FormatDebug {
		return AppendDebug(dst, fr)
	}
	return AppendPrimary(dst, fr)
}

// AppendPrimary appends "raw,bpm\r\n". A leads-off frame is "0,0\r\n".
func AppendPrimary(dst []byte, fr Frame) []byte {
	raw, bpm := int64(fr.Raw), int64(fr.BPM)
	if fr.LeadsOff {
		raw, bpm = 0, 0
	}
	dst = strconv.AppendInt(dst, raw, 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, bpm, 10)
	return append(dst, '\r', '\n')
}

// AppendDebug appends the centered raw sample, the band-passed signal, and the
// integrated signal and threshold scaled by 1/4000, each saturated to int16.
func AppendDebug(dst []byte, fr Frame) []byte {
	fields := [4]int16{
		saturate(float64(fr.Raw) - qrs.ADCMidScale),
		saturate(float64(fr.Diag.HighPass)),
		saturate(float64(fr.Diag.Integrated) / debugScale),
		saturate(float64(fr.Diag.Threshold) / debugScale),
	}
	for i, v := range fields {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return append(dst, '\r', '\n')
}

func saturate(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// Reading is one parsed primary line.
type Reading struct {
	Raw float64
	BPM int
}

// ParsePrimary parses a "raw,bpm" line. Surrounding whitespace and the CRLF
// terminator are ignored.
func ParsePrimary(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	rawText, bpmText, ok := strings.Cut(line, ",")
	if !ok || strings.Contains(bpmText, ",") {
		return Reading{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(rawText), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: raw value %q", ErrMalformedLine, rawText)
	}
	bpm, err := strconv.Atoi(strings.TrimSpace(bpmText))
	if err != nil {
		return Reading{}, fmt.Errorf("%w: bpm value %q", ErrMalformedLine, bpmText)
	}
	return Reading{Raw: raw, BPM: bpm}, nil
}

// Status is the rhythm classification shown next to the heart rate.
type Status int

const (
	StatusNoSignal Status = iota
	StatusBradycardia
	StatusNormal
	StatusTachycardia
)

// Classify maps a heart rate to a status: below 60 is brady, above 100 tachy.
func Classify(bpm int) Status {
	switch {
	case bpm <= 0:
		return StatusNoSignal
	case bpm < 60:
		return StatusBradycardia
	case bpm > 100:
		return StatusTachycardia
	}
	return StatusNormal
}

func (s Status) String() string {
	switch s {
	case StatusBradycardia:
		return "Bradycardia"
	case StatusNormal:
		return "Normal"
	case StatusTachycardia:
		return "Tachycardia"
	}
	return "No signal"
}
