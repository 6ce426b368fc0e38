// cmd/view.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
	"github.com/ColonelBlimp/qrsdetect/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// readingsBuffer is two seconds of telemetry.
const readingsBuffer = 2 * qrs.SampleRate

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show a live heart monitor for a telemetry stream",
	Long: `Show a terminal heart monitor fed by "raw,bpm" telemetry lines.

Lines are read from the serial port given with --port (or serial_port), or
from stdin when no port is set, e.g.

  qrsdetect run | qrsdetect view

Keys: q quits, p pauses the sweep, c clears it.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	viewCmd.Flags().Bool("pace", false, "replay stdin at 360 lines per second")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, _ []string) error {
	pace, _ := cmd.Flags().GetBool("pace")
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// logs would tear the alternate screen
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var (
		in     io.Reader
		label  string
		closer io.Closer
		opts   = []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	)
	if port := viper.GetString("serial_port"); port != "" {
		p, err := telemetry.OpenSerialReader(port, telemetry.PortOptions{BaudRate: viper.GetInt("serial_baud")})
		if err != nil {
			return err
		}
		in, label, closer = p, port, p
	} else {
		in, label = cmd.InOrStdin(), "stdin"
		// stdin carries data, so keys come from the terminal
		opts = append(opts, tea.WithInputTTY())
	}

	var period time.Duration
	if pace {
		period = time.Second / qrs.SampleRate
	}

	readings := make(chan telemetry.Reading, readingsBuffer)
	go func() {
		if err := feedReadings(ctx, in, readings, period, logger); err != nil {
			logger.Error("telemetry stream", "err", err)
		}
	}()

	_, err := tea.NewProgram(ui.NewModel(label, readings), opts...).Run()
	cancel()
	if closer != nil {
		// unblocks a serial read in progress
		_ = closer.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// feedReadings parses primary telemetry lines from r into ch and closes ch when
// r ends or ctx is done. Malformed lines are skipped. A positive period paces
// delivery to one reading per period.
func feedReadings(ctx context.Context, r io.Reader, ch chan<- telemetry.Reading, period time.Duration, logger *slog.Logger) error {
	defer close(ch)

	var tick <-chan time.Time
	if period > 0 {
		t := time.NewTicker(period)
		defer t.Stop()
		tick = t.C
	}

	sc := bufio.NewScanner(r)
	skipped := 0
	for sc.Scan() {
		rd, err := telemetry.ParsePrimary(sc.Text())
		if err != nil {
			skipped++
			logger.Debug("skip line", "line", sc.Text(), "err", err)
			continue
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case ch <- rd:
		}
	}
	if skipped > 0 {
		logger.Info("skipped malformed lines", "count", skipped)
	}
	return sc.Err()
}
