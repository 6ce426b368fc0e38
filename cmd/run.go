// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ColonelBlimp/qrsdetect/internal/audio"
	"github.com/ColonelBlimp/qrsdetect/internal/config"
	"github.com/ColonelBlimp/qrsdetect/internal/mailbox"
	"github.com/ColonelBlimp/qrsdetect/internal/monitor"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/ColonelBlimp/qrsdetect/internal/recovery"
	"github.com/ColonelBlimp/qrsdetect/internal/sampler"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const beepDuration = 40 * time.Millisecond

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live detector",
	Long: `Run the detector until interrupted.

A sampler publishes one sample every 1/360 s into a single-slot mailbox; the
processing loop takes the newest sample, runs the QRS engine and sends a
telemetry frame to every configured output. With a file source that is not
looped, the run ends when the recording does.

On unix, SIGUSR1 toggles the leads-off state of the simulator or file source.`,
	Args: cobra.NoArgs,
	RunE: runDetector,
}

func init() {
	runCmd.Flags().Bool("quiet", false, "do not write telemetry to stdout")
	runCmd.Flags().Float64("bpm", 72, "simulated heart rate")
	runCmd.Flags().Bool("beep", false, "play a tick on every beat")
	runCmd.Flags().Bool("plotter", false, "write debug channels to stdout instead of raw,bpm")
	runCmd.Flags().String("nats", "", "NATS server URL")
	runCmd.Flags().String("ws", "", "websocket listen address, e.g. :8080")
	runCmd.Flags().Bool("loop", false, "replay the recording forever")

	viper.BindPFlag("sim_bpm", runCmd.Flags().Lookup("bpm"))
	viper.BindPFlag("beep", runCmd.Flags().Lookup("beep"))
	viper.BindPFlag("debug_stdout", runCmd.Flags().Lookup("plotter"))
	viper.BindPFlag("nats_url", runCmd.Flags().Lookup("nats"))
	viper.BindPFlag("ws_addr", runCmd.Flags().Lookup("ws"))
	viper.BindPFlag("loop_input", runCmd.Flags().Lookup("loop"))

	rootCmd.AddCommand(runCmd)
}

func runDetector(cmd *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, closeSource, err := openSource(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	stdout := cmd.OutOrStdout()
	if quiet {
		stdout = nil
	}
	sinks, err := openSinks(settings, stdout, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("close telemetry", "err", err)
		}
	}()

	mb := mailbox.New()
	smp, err := sampler.New(src, mb, sampler.WithLogger(logger))
	if err != nil {
		return err
	}
	loop, err := monitor.New(qrs.New(), mb, sinks, monitor.WithLogger(logger))
	if err != nil {
		return err
	}

	if settings.Beep {
		beeper, err := audio.NewBeeper(settings.BeepFreq, beepDuration)
		if err != nil {
			logger.Warn("beep disabled", "err", err)
		} else {
			defer beeper.Close()
			loop.OnBeat(func(telemetry.Frame) {
				if err := recovery.Catch(beeper.Beep); err != nil {
					logger.Error("beep", "err", err)
				}
			})
		}
	}

	if ls, ok := src.(leadSwitcher); ok {
		stopToggle := watchLeadToggle(ctx, ls, logger)
		defer stopToggle()
	}

	var wg sync.WaitGroup
	var samplerErr, hubErr error

	recovery.Go(&wg, cancel, func() {
		// a finished recording ends the run
		defer cancel()
		samplerErr = smp.Run(ctx)
	})
	if sinks.hub != nil {
		recovery.Go(&wg, cancel, func() {
			if err := sinks.hub.ListenAndServe(ctx, settings.WSAddr); err != nil {
				hubErr = err
				cancel()
			}
		})
	}

	logger.Info("detector running", "source", settings.Source, "rate_hz", qrs.SampleRate)
	loopErr := loop.Run(ctx)
	wg.Wait()

	// the last published sample may still be waiting
	if s, ok := mb.TryConsume(); ok {
		loop.Step(s)
	}

	st := mb.Stats()
	logger.Info("detector stopped",
		"published", st.Published,
		"consumed", st.Consumed,
		"overwritten", st.Overwritten)

	return errors.Join(ignoreCanceled(samplerErr), hubErr, ignoreCanceled(loopErr))
}

// ignoreCanceled treats a cancelled context as a clean stop.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
