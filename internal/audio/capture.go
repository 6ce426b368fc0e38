// internal/audio/capture.go
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("audio capture not initialized")
	ErrAlreadyRunning = errors.New("audio capture already running")
	ErrNotRunning     = errors.New("audio capture not running")
	ErrDeviceIndex    = errors.New("capture device index out of range")
)

// Config holds line-in capture configuration for an analog ECG front end
type Config struct {
	DeviceIndex int    // -1 for the default device
	SampleRate  uint32 // device rate, decimated to the engine rate downstream
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns a mono 48 kHz capture on the default device
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  48000,
		BufferSize:  480,
	}
}

// FrameCallback is invoked on the audio thread with mono samples in [-1, 1].
// It must not block and must not retain the slice.
type FrameCallback func(samples []float32)

// Capture reads mono float32 frames from a capture device
type Capture struct {
	config   Config
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	running  bool
	mu       sync.RWMutex
	callback FrameCallback
	scratch  []float32
}

// New creates a capture instance; call Init before Start
func New(cfg Config) *Capture {
	return &Capture{config: cfg}
}

// SetCallback registers the frame consumer. Set before Start.
func (c *Capture) SetCallback(cb FrameCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns the available capture devices
func (c *Capture) ListDevices() ([]malgo.DeviceInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start begins capture; it stops on its own when ctx is cancelled
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.ctx == nil {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.mu.Unlock()

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         c.config.SampleRate,
		PeriodSizeInFrames: c.config.BufferSize,
		Capture: malgo.SubConfig{
			Format:   malgo.FormatF32,
			Channels: 1,
		},
	}
	if c.config.DeviceIndex >= 0 {
		devices, err := c.ListDevices()
		if err != nil {
			return err
		}
		if c.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("%w: %d (have %d devices)", ErrDeviceIndex, c.config.DeviceIndex, len(devices))
		}
		deviceConfig.Capture.DeviceID = devices[c.config.DeviceIndex].ID.Pointer()
	}

	onRecvFrames := func(_, input []byte, _ uint32) {
		if len(input) == 0 {
			return
		}
		c.scratch = decodeFloat32(c.scratch, input)

		c.mu.RLock()
		cb := c.callback
		c.mu.RUnlock()
		if cb != nil {
			cb(c.scratch)
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	c.mu.Lock()
	c.device = device
	c.running = true
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// Stop halts capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}
	c.stopDevice()
	return nil
}

// Close stops capture if needed and releases the backend
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.stopDevice()
	}
	if c.ctx != nil {
		if err := c.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		c.ctx.Free()
		c.ctx = nil
	}
	return nil
}

// stopDevice must be called with mu held
func (c *Capture) stopDevice() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running = false
}

// IsRunning reports whether capture is active
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// decodeFloat32 decodes little-endian float32 samples into dst, reusing its storage
func decodeFloat32(dst []float32, data []byte) []float32 {
	n := len(data) / 4
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return dst
}
