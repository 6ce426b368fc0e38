// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "qrsdetect"
	ConfigType    = "yaml"
	DefaultConfig = `# QRS detector configuration

# Sample source: sim, file or audio
source: "sim"
input_file: ""          # recording for source=file, one sample or "raw,bpm" per line
loop_input: false       # replay the recording forever

# Simulator (source=sim)
sim_bpm: 72             # heart rate of the synthetic ECG
sim_noise: 20           # uniform muscle noise amplitude in ADC counts
sim_wander: 150         # respiration baseline wander amplitude in ADC counts
sim_hum: 30             # powerline interference amplitude in ADC counts
sim_seed: 1             # noise seed, same seed gives the same waveform

# Line-in front end (source=audio)
device_index: -1        # -1 for default device
audio_sample_rate: 48000
audio_gain: 1.0         # input gain before mapping to the 12-bit range

# Mains frequency, used by the simulator hum and by analyze
mains_freq: 50

# Telemetry
serial_port: ""         # Bluetooth SPP link to the display, e.g. /dev/rfcomm0
serial_baud: 9600
debug_port: ""          # debug plotter link, four channels per sample
debug_baud: 115200
debug_stdout: false     # write the debug channels to stdout instead of primary lines
nats_url: ""            # e.g. nats://127.0.0.1:4222
nats_subject: "ecg"
ws_addr: ""             # e.g. :8080 serves /ws

# Feedback
beep: false             # audible tick on every detected beat
beep_freq: 880

# Output
debug: false            # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Sample source
	Source    string `mapstructure:"source"`
	InputFile string `mapstructure:"input_file"`
	LoopInput bool   `mapstructure:"loop_input"`

	// Simulator
	SimBPM    float64 `mapstructure:"sim_bpm"`
	SimNoise  float64 `mapstructure:"sim_noise"`
	SimWander float64 `mapstructure:"sim_wander"`
	SimHum    float64 `mapstructure:"sim_hum"`
	SimSeed   uint64  `mapstructure:"sim_seed"`

	// Line-in front end
	DeviceIndex     int     `mapstructure:"device_index"`
	AudioSampleRate int     `mapstructure:"audio_sample_rate"`
	AudioGain       float64 `mapstructure:"audio_gain"`

	MainsFreq float64 `mapstructure:"mains_freq"`

	// Telemetry
	SerialPort  string `mapstructure:"serial_port"`
	SerialBaud  int    `mapstructure:"serial_baud"`
	DebugPort   string `mapstructure:"debug_port"`
	DebugBaud   int    `mapstructure:"debug_baud"`
	DebugStdout bool   `mapstructure:"debug_stdout"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
	WSAddr      string `mapstructure:"ws_addr"`

	// Feedback
	Beep     bool    `mapstructure:"beep"`
	BeepFreq float64 `mapstructure:"beep_freq"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Source kinds
const (
	SourceSim   = "sim"
	SourceFile  = "file"
	SourceAudio = "audio"
)

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("source", SourceSim)
	viper.SetDefault("input_file", "")
	viper.SetDefault("loop_input", false)
	viper.SetDefault("sim_bpm", 72)
	viper.SetDefault("sim_noise", 20)
	viper.SetDefault("sim_wander", 150)
	viper.SetDefault("sim_hum", 30)
	viper.SetDefault("sim_seed", 1)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("audio_sample_rate", 48000)
	viper.SetDefault("audio_gain", 1.0)
	viper.SetDefault("mains_freq", 50)
	viper.SetDefault("serial_port", "")
	viper.SetDefault("serial_baud", 9600)
	viper.SetDefault("debug_port", "")
	viper.SetDefault("debug_baud", 115200)
	viper.SetDefault("debug_stdout", false)
	viper.SetDefault("nats_url", "")
	viper.SetDefault("nats_subject", "ecg")
	viper.SetDefault("ws_addr", "")
	viper.SetDefault("beep", false)
	viper.SetDefault("beep_freq", 880)
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/qrsdetect/
func Init() error {
	SetDefaults()
	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// hidden .config.yaml wins over config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
		return err
	}
	if err = viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	switch s.Source {
	case SourceSim, SourceAudio:
	case SourceFile:
		if s.InputFile == "" {
			errs = append(errs, errors.New("input_file is required when source is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("source must be one of sim, file, audio, got %q", s.Source))
	}

	if s.SimBPM < 20 || s.SimBPM > 300 {
		errs = append(errs, fmt.Errorf("sim_bpm must be between 20 and 300, got %v", s.SimBPM))
	}
	if s.SimNoise < 0 || s.SimNoise > 2048 {
		errs = append(errs, fmt.Errorf("sim_noise must be between 0 and 2048, got %v", s.SimNoise))
	}
	if s.SimWander < 0 || s.SimWander > 2048 {
		errs = append(errs, fmt.Errorf("sim_wander must be between 0 and 2048, got %v", s.SimWander))
	}
	if s.SimHum < 0 || s.SimHum > 2048 {
		errs = append(errs, fmt.Errorf("sim_hum must be between 0 and 2048, got %v", s.SimHum))
	}

	// the front end decimates to 360 Hz, so it needs at least that much input
	if s.AudioSampleRate < 8000 || s.AudioSampleRate > 192000 {
		errs = append(errs, fmt.Errorf("audio_sample_rate must be between 8000 and 192000 Hz, got %d", s.AudioSampleRate))
	}
	if s.AudioGain <= 0 || s.AudioGain > 100 {
		errs = append(errs, fmt.Errorf("audio_gain must be greater than 0 and at most 100, got %v", s.AudioGain))
	}

	if s.MainsFreq != 50 && s.MainsFreq != 60 {
		errs = append(errs, fmt.Errorf("mains_freq must be 50 or 60, got %v", s.MainsFreq))
	}

	validBauds := map[int]bool{
		1200: true, 2400: true, 4800: true, 9600: true, 19200: true,
		38400: true, 57600: true, 115200: true, 230400: true,
	}
	if !validBauds[s.SerialBaud] {
		errs = append(errs, fmt.Errorf("serial_baud must be a standard rate (1200-230400), got %d", s.SerialBaud))
	}
	if !validBauds[s.DebugBaud] {
		errs = append(errs, fmt.Errorf("debug_baud must be a standard rate (1200-230400), got %d", s.DebugBaud))
	}
	if s.SerialPort != "" && s.SerialPort == s.DebugPort {
		errs = append(errs, fmt.Errorf("serial_port and debug_port must differ, both are %q", s.SerialPort))
	}
	if s.NATSURL != "" && s.NATSSubject == "" {
		errs = append(errs, errors.New("nats_subject is required when nats_url is set"))
	}

	if s.BeepFreq < 100 || s.BeepFreq > 5000 {
		errs = append(errs, fmt.Errorf("beep_freq must be between 100 and 5000 Hz, got %v", s.BeepFreq))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
