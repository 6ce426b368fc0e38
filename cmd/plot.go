// cmd/plot.go
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ColonelBlimp/qrsdetect/internal/plot"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
	"github.com/spf13/cobra"
)

var plotCmd = &cobra.Command{
	Use:   "plot [file]",
	Short: "Render the detector's view of a recording",
	Long: `Run a recording through the detector and draw the raw signal, the bandpass
output, the integrated energy and the adaptive threshold with a marker on every
detected beat. The image format follows the output extension (png, svg, pdf).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringP("output", "o", "qrs.png", "output image")
	plotCmd.Flags().Float64("from", 0, "start of the window in seconds")
	plotCmd.Flags().Float64("to", 10, "end of the window in seconds, 0 for the whole recording")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	path, err := inputPath(args)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	if from < 0 || (to > 0 && to <= from) {
		return fmt.Errorf("invalid window %.2fs to %.2fs", from, to)
	}

	rep, err := analyzeFile(path, true)
	if err != nil {
		return err
	}

	opts := plot.Options{
		Title: filepath.Base(path),
		From:  int(from * qrs.SampleRate),
		To:    int(to * qrs.SampleRate),
	}
	if err = plot.Render(rep.Trace, out, opts); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d beats, %d BPM)\n", out, len(rep.Beats), rep.FinalBPM)
	return err
}
