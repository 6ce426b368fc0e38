package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

// isolate points HOME at a temp dir and clears XDG_CONFIG_HOME so Init never
// touches the real user config.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	return tmpDir
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	})
}

func writeUserConfig(t *testing.T, home, content string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeUserConfig(t, tmpDir, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"source", "sim"},
		{"sim_bpm", 72},
		{"sim_seed", 1},
		{"device_index", -1},
		{"audio_sample_rate", 48000},
		{"mains_freq", 50},
		{"serial_baud", 9600},
		{"debug_baud", 115200},
		{"nats_subject", "ecg"},
		{"beep", false},
		{"debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.expected {
				t.Errorf("viper.Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestInit_CreatesConfigIfMissing(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ".config", AppName, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Init() did not create config file at %s", configPath)
	}
	if got := viper.ConfigFileUsed(); got != configPath {
		t.Errorf("ConfigFileUsed() = %q, want %q", got, configPath)
	}
}

func TestInit_ReadsLocalConfigFirst(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	writeUserConfig(t, tmpDir, "sim_bpm: 60")

	workDir := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	chdir(t, workDir)
	if err := os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte("sim_bpm: 90"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("sim_bpm"); got != 90 {
		t.Errorf("viper.GetInt(sim_bpm) = %d, want 90 (local config)", got)
	}
}

func TestInit_DotConfigTakesPrecedence(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	workDir := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	chdir(t, workDir)

	if err := os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte("source: sim"), 0644); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}
	dot := "source: file\ninput_file: rec.csv\n"
	if err := os.WriteFile(filepath.Join(workDir, ".config.yaml"), []byte(dot), 0644); err != nil {
		t.Fatalf("failed to write .config.yaml: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetString("source"); got != SourceFile {
		t.Errorf("viper.GetString(source) = %q, want %q", got, SourceFile)
	}
	if got := viper.GetString("input_file"); got != "rec.csv" {
		t.Errorf("viper.GetString(input_file) = %q, want rec.csv", got)
	}
}

func TestInit_InvalidConfigFile(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeUserConfig(t, tmpDir, "invalid: yaml: content: [[[")

	if err := Init(); err == nil {
		t.Error("Init() should return error for invalid YAML")
	}
}

func TestGet_ReturnsSettings(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeUserConfig(t, tmpDir, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.Source != SourceSim {
		t.Errorf("Settings.Source = %q, want %q", settings.Source, SourceSim)
	}
	if settings.SimBPM != 72 {
		t.Errorf("Settings.SimBPM = %v, want 72", settings.SimBPM)
	}
	if settings.SimSeed != 1 {
		t.Errorf("Settings.SimSeed = %d, want 1", settings.SimSeed)
	}
	if settings.DeviceIndex != -1 {
		t.Errorf("Settings.DeviceIndex = %d, want -1", settings.DeviceIndex)
	}
	if settings.AudioGain != 1.0 {
		t.Errorf("Settings.AudioGain = %v, want 1.0", settings.AudioGain)
	}
	if settings.SerialBaud != 9600 {
		t.Errorf("Settings.SerialBaud = %d, want 9600", settings.SerialBaud)
	}
	if settings.BeepFreq != 880 {
		t.Errorf("Settings.BeepFreq = %v, want 880", settings.BeepFreq)
	}
	if settings.Debug {
		t.Errorf("Settings.Debug = %v, want false", settings.Debug)
	}
}

func TestGet_AllFields(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)

	customConfig := `source: file
input_file: /tmp/rec.csv
loop_input: true
sim_bpm: 100
sim_noise: 5
sim_wander: 0
sim_hum: 12
sim_seed: 42
device_index: 3
audio_sample_rate: 44100
audio_gain: 2.5
mains_freq: 60
serial_port: /dev/rfcomm0
serial_baud: 19200
debug_port: /dev/ttyUSB0
debug_baud: 57600
debug_stdout: true
nats_url: nats://127.0.0.1:4222
nats_subject: ward.bed7
ws_addr: ":9090"
beep: true
beep_freq: 1000
debug: true
`
	writeUserConfig(t, tmpDir, customConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := Settings{
		Source:          SourceFile,
		InputFile:       "/tmp/rec.csv",
		LoopInput:       true,
		SimBPM:          100,
		SimNoise:        5,
		SimWander:       0,
		SimHum:          12,
		SimSeed:         42,
		DeviceIndex:     3,
		AudioSampleRate: 44100,
		AudioGain:       2.5,
		MainsFreq:       60,
		SerialPort:      "/dev/rfcomm0",
		SerialBaud:      19200,
		DebugPort:       "/dev/ttyUSB0",
		DebugBaud:       57600,
		DebugStdout:     true,
		NATSURL:         "nats://127.0.0.1:4222",
		NATSSubject:     "ward.bed7",
		WSAddr:          ":9090",
		Beep:            true,
		BeepFreq:        1000,
		Debug:           true,
	}
	if *got != want {
		t.Errorf("Get() = %+v\nwant %+v", *got, want)
	}
}

func TestGet_InvalidSettings(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeUserConfig(t, tmpDir, "source: tape\n")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	_, err := Get()
	if err == nil {
		t.Fatal("Get() should fail for an unknown source")
	}
	if !strings.Contains(err.Error(), "source") {
		t.Errorf("Get() error = %v, want it to mention source", err)
	}
}

func TestEnsureConfigExists_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config")

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(configPath, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != DefaultConfig {
		t.Errorf("config content does not match DefaultConfig")
	}
}

func TestEnsureConfigExists_DoesNotOverwrite(t *testing.T) {
	configPath := t.TempDir()
	configFile := filepath.Join(configPath, "config.yaml")
	existingContent := "sim_bpm: 55"
	if err := os.WriteFile(configFile, []byte(existingContent), 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("ensureConfigExists() overwrote existing config")
	}
}

func TestEnsureConfigExists_WriteError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping test when running as root")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "readonly")
	if err := os.MkdirAll(configPath, 0555); err != nil {
		t.Fatalf("failed to create readonly dir: %v", err)
	}
	defer func() {
		if err := os.Chmod(configPath, 0755); err != nil {
			t.Logf("failed to restore permissions: %v", err)
		}
	}()

	if err := ensureConfigExists(filepath.Join(configPath, "subdir")); err == nil {
		t.Error("ensureConfigExists() should return error for read-only directory")
	}
}

func TestDefaultConfig_ContainsExpectedKeys(t *testing.T) {
	keys := []string{
		"source:", "input_file:", "loop_input:",
		"sim_bpm:", "sim_noise:", "sim_wander:", "sim_hum:", "sim_seed:",
		"device_index:", "audio_sample_rate:", "audio_gain:", "mains_freq:",
		"serial_port:", "serial_baud:", "debug_port:", "debug_baud:", "debug_stdout:",
		"nats_url:", "nats_subject:", "ws_addr:",
		"beep:", "beep_freq:", "debug:",
	}
	for _, key := range keys {
		if !strings.Contains(DefaultConfig, key) {
			t.Errorf("DefaultConfig missing key %q", key)
		}
	}
}

// Validation tests

func TestSettings_Validate_ValidSettings(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid settings", err)
	}
}

func TestSettings_Validate_Source(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		inputFile string
		wantErr   bool
	}{
		{"sim", SourceSim, "", false},
		{"audio", SourceAudio, "", false},
		{"file with path", SourceFile, "rec.csv", false},
		{"file without path", SourceFile, "", true},
		{"unknown", "tape", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.Source = tt.source
			s.InputFile = tt.inputFile
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_SimBPM(t *testing.T) {
	tests := []struct {
		name    string
		bpm     float64
		wantErr bool
	}{
		{"too low", 19, true},
		{"minimum", 20, false},
		{"resting", 72, false},
		{"maximum", 300, false},
		{"too high", 301, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.SimBPM = tt.bpm
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_AudioSampleRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"too low", 7999, true},
		{"minimum", 8000, false},
		{"typical 44100", 44100, false},
		{"maximum", 192000, false},
		{"too high", 192001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.AudioSampleRate = tt.rate
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_Baud(t *testing.T) {
	tests := []struct {
		name    string
		baud    int
		wantErr bool
	}{
		{"9600", 9600, false},
		{"115200", 115200, false},
		{"nonstandard", 10000, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.SerialBaud = tt.baud
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_SamePorts(t *testing.T) {
	s := validSettings()
	s.SerialPort = "/dev/rfcomm0"
	s.DebugPort = "/dev/rfcomm0"
	if err := s.Validate(); err == nil {
		t.Error("Validate() should reject identical serial and debug ports")
	}
}

func TestSettings_Validate_NATSSubject(t *testing.T) {
	s := validSettings()
	s.NATSURL = "nats://localhost:4222"
	s.NATSSubject = ""
	if err := s.Validate(); err == nil {
		t.Error("Validate() should require a subject when nats_url is set")
	}
}

func TestSettings_Validate_MultipleErrors(t *testing.T) {
	s := &Settings{
		Source:          "bad", // invalid
		SimBPM:          0,     // invalid
		SimNoise:        -1,    // invalid
		SimWander:       5000,  // invalid
		SimHum:          -3,    // invalid
		AudioSampleRate: 100,   // invalid
		AudioGain:       0,     // invalid
		MainsFreq:       55,    // invalid
		SerialBaud:      1,     // invalid
		DebugBaud:       2,     // invalid
		BeepFreq:        10,    // invalid
	}

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() should return error for multiple invalid fields")
	}

	errStr := err.Error()
	expectedSubstrings := []string{
		"source",
		"sim_bpm",
		"sim_noise",
		"sim_wander",
		"sim_hum",
		"audio_sample_rate",
		"audio_gain",
		"mains_freq",
		"serial_baud",
		"debug_baud",
		"beep_freq",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(errStr, substr) {
			t.Errorf("Validate() error should mention %q, got: %v", substr, errStr)
		}
	}
}

// validSettings returns a Settings struct with all valid values
func validSettings() *Settings {
	return &Settings{
		Source:          SourceSim,
		SimBPM:          72,
		SimNoise:        20,
		SimWander:       150,
		SimHum:          30,
		SimSeed:         1,
		DeviceIndex:     -1,
		AudioSampleRate: 48000,
		AudioGain:       1,
		MainsFreq:       50,
		SerialBaud:      9600,
		DebugBaud:       115200,
		NATSSubject:     "ecg",
		BeepFreq:        880,
	}
}
