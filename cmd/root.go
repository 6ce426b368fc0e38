// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/qrsdetect/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "qrsdetect",
	Short: "Real-time ECG QRS detector",
	Long: `A real-time heartbeat detector for single-lead ECG.

Samples from a simulator, a recording or an analog front end on line-in are
run through a Pan-Tompkins pipeline at 360 Hz. Detected beats and the heart
rate are streamed as "raw,bpm" lines to stdout, a Bluetooth serial link,
NATS or websocket clients.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().StringP("source", "s", "sim", "sample source: sim, file or audio")
	rootCmd.PersistentFlags().StringP("input", "i", "", "recording to replay or analyze")
	rootCmd.PersistentFlags().StringP("port", "p", "", "serial port for primary telemetry")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	// Bind flags to viper
	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("input_file", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("serial_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stderr, viper.GetBool("debug")))
}

// newLogger returns a text logger; debug lowers the level to include per-event detail.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
