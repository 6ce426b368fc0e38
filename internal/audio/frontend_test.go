// internal/audio/frontend_test.go
package audio

import (
	"errors"
	"math"
	"testing"
)

func createTestFrontEnd(t *testing.T, cfg FrontEndConfig) *FrontEnd {
	t.Helper()
	f, err := NewFrontEnd(cfg)
	if err != nil {
		t.Fatalf("NewFrontEnd failed: %v", err)
	}
	return f
}

func TestNewFrontEnd_InvalidRate(t *testing.T) {
	tests := []FrontEndConfig{
		{InputRate: 48000, OutputRate: 0},
		{InputRate: 100, OutputRate: 360},
	}
	for _, cfg := range tests {
		if _, err := NewFrontEnd(cfg); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("NewFrontEnd(%+v) error = %v, want ErrInvalidRate", cfg, err)
		}
	}
}

func TestFrontEnd_IdleReadsMidScale(t *testing.T) {
	f := createTestFrontEnd(t, FrontEndConfig{InputRate: 48000, OutputRate: 360})

	v, err := f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if v != adcMid {
		t.Errorf("Read() = %d, want %d", v, adcMid)
	}
}

func TestFrontEnd_DecimationCount(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		frames int
		want   uint64
	}{
		{"integer ratio", 36000, 36000, 360},
		{"fractional ratio", 48000, 48000, 360},
		{"fractional ratio 44.1k", 44100, 44100 * 2, 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestFrontEnd(t, FrontEndConfig{InputRate: tt.in, OutputRate: 360})
			buf := make([]float32, 480)
			for fed := 0; fed < tt.frames; fed += len(buf) {
				n := min(len(buf), tt.frames-fed)
				f.Feed(buf[:n])
			}
			if got := f.Emitted(); got < tt.want-1 || got > tt.want {
				t.Errorf("Emitted() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrontEnd_Scaling(t *testing.T) {
	tests := []struct {
		name  string
		level float32
		gain  float64
		want  uint16
	}{
		{"zero", 0, 1, 2048},
		{"half positive", 0.5, 1, 3072},
		{"half negative", -0.5, 1, 1024},
		{"positive rail", 1, 1, 4095},
		{"negative rail", -1, 1, 0},
		{"gain clips", 0.5, 4, 4095},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestFrontEnd(t, FrontEndConfig{InputRate: 3600, OutputRate: 360, Gain: tt.gain})
			buf := make([]float32, 10)
			for i := range buf {
				buf[i] = tt.level
			}
			f.Feed(buf)

			got, _ := f.Read()
			if got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrontEnd_AveragesBlock(t *testing.T) {
	f := createTestFrontEnd(t, FrontEndConfig{InputRate: 1440, OutputRate: 360})

	// a 360 Hz square wave at 4x oversampling averages to zero
	f.Feed([]float32{0.5, 0.5, -0.5, -0.5})

	if got, _ := f.Read(); got != adcMid {
		t.Errorf("Read() = %d, want %d", got, adcMid)
	}
}

func TestFrontEnd_LeadsOff(t *testing.T) {
	f := createTestFrontEnd(t, FrontEndConfig{
		InputRate:      3600,
		OutputRate:     360,
		SilenceFloor:   0.001,
		SilenceSamples: 360,
	})

	signal := make([]float32, 3600)
	for i := range signal {
		signal[i] = float32(0.3 * math.Sin(2*math.Pi*float64(i)/360))
	}
	f.Feed(signal)
	if f.LeadsOff() {
		t.Fatal("LeadsOff() = true with signal present")
	}

	f.Feed(make([]float32, 3590))
	if f.LeadsOff() {
		t.Fatal("LeadsOff() = true before a full second of silence")
	}
	f.Feed(make([]float32, 20))
	if !f.LeadsOff() {
		t.Fatal("LeadsOff() = false after a second of silence")
	}

	f.Feed(signal[:200])
	if f.LeadsOff() {
		t.Error("LeadsOff() still true after signal returned")
	}
}
