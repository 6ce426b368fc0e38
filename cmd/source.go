// cmd/source.go
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/qrsdetect/internal/audio"
	"github.com/ColonelBlimp/qrsdetect/internal/config"
	"github.com/ColonelBlimp/qrsdetect/internal/ecgsim"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/sampler"
)

// Line-in leads-off detection: half a second below the floor.
const (
	audioSilenceFloor   = 0.002
	audioSilenceSamples = qrs.SampleRate / 2
)

// leadSwitcher is a source whose leads-off state can be driven from outside.
type leadSwitcher interface {
	Set(off bool)
	LeadsOff() bool
}

// simConfig maps settings onto the generator config at the engine rate.
func simConfig(s *config.Settings) ecgsim.Config {
	cfg := ecgsim.DefaultConfig()
	cfg.SampleRate = qrs.SampleRate
	cfg.BPM = s.SimBPM
	cfg.NoiseAmplitude = s.SimNoise
	cfg.WanderAmplitude = s.SimWander
	cfg.HumAmplitude = s.SimHum
	cfg.HumFreq = s.MainsFreq
	cfg.Seed = s.SimSeed
	return cfg
}

// loadRecording reads every sample from path.
func loadRecording(path string) ([]uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	samples, err := sampler.LoadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// openSource builds the configured sample source. The returned cleanup is never nil.
func openSource(ctx context.Context, s *config.Settings, logger *slog.Logger) (sampler.Source, func(), error) {
	noop := func() {}

	switch s.Source {
	case config.SourceSim:
		gen, err := ecgsim.New(simConfig(s))
		if err != nil {
			return nil, noop, fmt.Errorf("simulator: %w", err)
		}
		logger.Info("using simulator", "bpm", s.SimBPM, "seed", s.SimSeed)
		return sampler.NewSimSource(gen), noop, nil

	case config.SourceFile:
		samples, err := loadRecording(s.InputFile)
		if err != nil {
			return nil, noop, err
		}
		src, err := sampler.NewSliceSource(samples, s.LoopInput)
		if err != nil {
			return nil, noop, fmt.Errorf("%s: %w", s.InputFile, err)
		}
		logger.Info("replaying recording", "file", s.InputFile, "samples", len(samples), "loop", s.LoopInput)
		return src, noop, nil

	case config.SourceAudio:
		fe, err := audio.NewFrontEnd(audio.FrontEndConfig{
			InputRate:      float64(s.AudioSampleRate),
			OutputRate:     qrs.SampleRate,
			Gain:           s.AudioGain,
			SilenceFloor:   audioSilenceFloor,
			SilenceSamples: audioSilenceSamples,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("front end: %w", err)
		}
		capture := audio.New(audio.Config{
			DeviceIndex: s.DeviceIndex,
			SampleRate:  uint32(s.AudioSampleRate),
			BufferSize:  uint32(s.AudioSampleRate / 100),
		})
		capture.SetCallback(fe.Feed)
		if err = capture.Init(); err != nil {
			return nil, noop, err
		}
		if err = capture.Start(ctx); err != nil {
			_ = capture.Close()
			return nil, noop, fmt.Errorf("start capture: %w", err)
		}
		logger.Info("capturing line-in", "device", s.DeviceIndex, "rate", s.AudioSampleRate)
		return fe, func() {
			if err := capture.Close(); err != nil {
				logger.Warn("close capture", "err", err)
			}
		}, nil
	}
	return nil, noop, fmt.Errorf("unknown source %q", s.Source)
}
