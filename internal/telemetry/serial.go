// internal/telemetry/serial.go
package telemetry

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// PortOptions describes a serial link. Zero fields take 9600 8N1, the HC-05 default.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// Normalize validates the options and fills in defaults.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	return opts, nil
}

// Mode converts the options into a serial.Mode.
func (o PortOptions) Mode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{BaudRate: opts.BaudRate, DataBits: opts.DataBits, StopBits: serial.OneStopBit}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}

// OpenSerial opens path and returns a sink writing format lines to it.
func OpenSerial(path string, opts PortOptions, format Format) (*WriterSink, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return NewWriterSink(port, format), nil
}

// OpenSerialReader opens path for reading telemetry lines.
func OpenSerialReader(path string, opts PortOptions) (serial.Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
