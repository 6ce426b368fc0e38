// cmd/sinks.go
package cmd

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ColonelBlimp/qrsdetect/internal/config"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
)

// writerOnly hides Close so a WriterSink never closes stdout.
type writerOnly struct{ io.Writer }

// sinkSet is every telemetry output opened for a run.
type sinkSet struct {
	telemetry.Multi
	hub *telemetry.Hub // nil unless ws_addr is set
}

// openSinks opens the outputs named in s. stdout is nil when quiet.
// On error everything opened so far is closed.
func openSinks(s *config.Settings, stdout io.Writer, logger *slog.Logger) (*sinkSet, error) {
	set := &sinkSet{}
	fail := func(err error) (*sinkSet, error) {
		return nil, errors.Join(err, set.Close())
	}

	if stdout != nil {
		format := telemetry.FormatPrimary
		if s.DebugStdout {
			format = telemetry.FormatDebug
		}
		set.Multi = append(set.Multi, telemetry.NewWriterSink(writerOnly{stdout}, format))
	}

	if s.SerialPort != "" {
		sink, err := telemetry.OpenSerial(s.SerialPort, telemetry.PortOptions{BaudRate: s.SerialBaud}, telemetry.FormatPrimary)
		if err != nil {
			return fail(err)
		}
		logger.Info("serial telemetry", "port", s.SerialPort, "baud", s.SerialBaud)
		set.Multi = append(set.Multi, sink)
	}

	if s.DebugPort != "" {
		sink, err := telemetry.OpenSerial(s.DebugPort, telemetry.PortOptions{BaudRate: s.DebugBaud}, telemetry.FormatDebug)
		if err != nil {
			return fail(err)
		}
		logger.Info("debug telemetry", "port", s.DebugPort, "baud", s.DebugBaud)
		set.Multi = append(set.Multi, sink)
	}

	if s.NATSURL != "" {
		nc, err := telemetry.ConnectNATS(s.NATSURL)
		if err != nil {
			return fail(err)
		}
		sink := telemetry.NewNATSSink(nc, s.NATSSubject, 0)
		logger.Info("nats telemetry", "url", s.NATSURL, "subject", s.NATSSubject, "session", sink.Session())
		set.Multi = append(set.Multi, sink)
	}

	if s.WSAddr != "" {
		set.hub = telemetry.NewHub(logger)
		set.Multi = append(set.Multi, set.hub)
	}

	return set, nil
}
