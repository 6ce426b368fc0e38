// internal/telemetry/sink.go
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Sink receives every processed frame. Send is called from the processing loop
// and should not block for long.
type Sink interface {
	Send(Frame) error
	Close() error
}

// WriterSink writes each frame as one encoded line.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	buf    []byte
}

// NewWriterSink encodes frames in format onto w. If w is an io.Closer it is closed by Close.
func NewWriterSink(w io.Writer, format Format) *WriterSink {
	return &WriterSink{w: w, format: format, buf: make([]byte, 0, 64)}
}

func (s *WriterSink) Send(fr Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = s.format.Append(s.buf[:0], fr)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("write %s frame: %w", s.format, err)
	}
	return nil
}

func (s *WriterSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi fans a frame out to several sinks. A failing sink does not stop the others.
type Multi []Sink

func (m Multi) Send(fr Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(fr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every frame.
type Discard struct{}

func (Discard) Send(Frame) error { return nil }
func (Discard) Close() error     { return nil }
