// internal/sampler/sampler.go
package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ColonelBlimp/qrsdetect/internal/mailbox"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
)

// DefaultPeriod is one sample at the engine's fixed rate.
const DefaultPeriod = time.Second / qrs.SampleRate

var (
	ErrSourceRequired  = errors.New("sample source is required")
	ErrMailboxRequired = errors.New("mailbox is required")
)

// Source yields one 12-bit sample per call.
// Read returns io.EOF once a finite source is exhausted.
type Source interface {
	Read() (uint16, error)
	// LeadsOff reports whether the electrodes are disconnected.
	LeadsOff() bool
}

// Sampler drives a Source at a fixed rate and publishes every sample to a mailbox,
// standing in for the timer-triggered ADC interrupt.
type Sampler struct {
	src    Source
	mb     *mailbox.Mailbox
	period time.Duration
	logger *slog.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithPeriod overrides the sampling period.
func WithPeriod(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithLogger sets the logger used for source errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a sampler feeding mb from src.
func New(src Source, mb *mailbox.Mailbox, opts ...Option) (*Sampler, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if mb == nil {
		return nil, ErrMailboxRequired
	}
	s := &Sampler{
		src:    src,
		mb:     mb,
		period: DefaultPeriod,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run publishes one sample per period until ctx is done or the source ends.
// A source reaching io.EOF ends Run with a nil error.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v, err := s.src.Read()
			if errors.Is(err, io.EOF) {
				s.logger.Debug("sample source exhausted", "stats", s.mb.Stats())
				return nil
			}
			if err != nil {
				return fmt.Errorf("read sample: %w", err)
			}
			s.mb.Publish(mailbox.Sample{Value: v, LeadsOff: s.src.LeadsOff()})
		}
	}
}

// Period returns the sampling period.
func (s *Sampler) Period() time.Duration {
	return s.period
}
