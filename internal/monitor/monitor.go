// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/ColonelBlimp/qrsdetect/internal/mailbox"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
)

// DefaultStatsInterval logs mailbox counters once a minute of samples.
const DefaultStatsInterval = 60 * qrs.SampleRate

var (
	ErrEngineRequired  = errors.New("engine is required")
	ErrMailboxRequired = errors.New("mailbox is required")
)

// BeatCallback is called on the processing goroutine for every confirmed beat.
type BeatCallback func(fr telemetry.Frame)

// Loop is the consumer side: it drains the mailbox, runs the engine and
// forwards every frame to the sink.
type Loop struct {
	engine *qrs.Engine
	mb     *mailbox.Mailbox
	sink   telemetry.Sink
	logger *slog.Logger

	onBeat        atomic.Pointer[BeatCallback]
	statsInterval uint64
	processed     uint64
	leadsOff      bool
	sinkFailing   bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithStatsInterval sets how many samples pass between stats log lines; 0 disables them.
func WithStatsInterval(n uint64) Option {
	return func(lp *Loop) { lp.statsInterval = n }
}

// New wires a loop. A nil sink discards frames.
func New(engine *qrs.Engine, mb *mailbox.Mailbox, sink telemetry.Sink, opts ...Option) (*Loop, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if mb == nil {
		return nil, ErrMailboxRequired
	}
	if sink == nil {
		sink = telemetry.Discard{}
	}
	l := &Loop{
		engine:        engine,
		mb:            mb,
		sink:          sink,
		logger:        slog.Default(),
		statsInterval: DefaultStatsInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// OnBeat sets the beat callback. Safe to call while Run is active; nil clears it.
func (l *Loop) OnBeat(cb BeatCallback) {
	if cb == nil {
		l.onBeat.Store(nil)
		return
	}
	l.onBeat.Store(&cb)
}

// Run processes samples until ctx is done and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	for {
		s, err := l.mb.Wait(ctx)
		if err != nil {
			return err
		}
		l.Step(s)
	}
}

// Step handles one sample and returns the frame it produced.
// With the leads off the engine is skipped and the rate is cleared.
func (l *Loop) Step(s mailbox.Sample) telemetry.Frame {
	if s.LeadsOff != l.leadsOff {
		l.leadsOff = s.LeadsOff
		if s.LeadsOff {
			l.logger.Warn("electrodes disconnected")
		} else {
			l.logger.Info("electrodes connected")
		}
	}

	var fr telemetry.Frame
	if s.LeadsOff {
		l.engine.ClearBPM()
		fr = telemetry.Frame{Tick: l.engine.Tick(), LeadsOff: true}
	} else {
		beat := l.engine.Process(s.Value)
		fr = telemetry.Frame{
			Tick: l.engine.Tick(),
			Raw:  s.Value,
			BPM:  l.engine.BPM(),
			Beat: beat,
			Diag: l.engine.Diagnostics(),
		}
		if beat {
			l.logger.Debug("beat", "tick", l.engine.LastBeatTick(), "bpm", fr.BPM)
			if cb := l.onBeat.Load(); cb != nil {
				(*cb)(fr)
			}
		}
	}

	l.send(fr)

	l.processed++
	if l.statsInterval > 0 && l.processed%l.statsInterval == 0 {
		st := l.mb.Stats()
		l.logger.Debug("mailbox stats",
			"published", st.Published,
			"consumed", st.Consumed,
			"overwritten", st.Overwritten,
			"bpm", l.engine.BPM(),
		)
	}
	return fr
}

// send logs the first failure of a run of sink errors and the recovery after it.
func (l *Loop) send(fr telemetry.Frame) {
	err := l.sink.Send(fr)
	switch {
	case err != nil && !l.sinkFailing:
		l.sinkFailing = true
		l.logger.Warn("telemetry send failed", "error", err)
	case err == nil && l.sinkFailing:
		l.sinkFailing = false
		l.logger.Info("telemetry send recovered")
	}
}
