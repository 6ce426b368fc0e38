// cmd/analyze.go
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ColonelBlimp/qrsdetect/internal/analysis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoInput = errors.New("no recording given: pass a file or set input_file")

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run a recording through the detector and report statistics",
	Long: `Run a recording through a fresh detector as fast as possible and print the
detected beats, the final heart rate, RR interval statistics and a spectral
summary of the signal.

The recording holds one sample per line, either a bare 12-bit value or a
"raw,bpm" telemetry line as written by the run command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

// inputPath picks the positional file over the configured input_file.
func inputPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if p := viper.GetString("input_file"); p != "" {
		return p, nil
	}
	return "", errNoInput
}

func analyzeFile(path string, trace bool) (analysis.Report, error) {
	samples, err := loadRecording(path)
	if err != nil {
		return analysis.Report{}, err
	}
	mains := viper.GetFloat64("mains_freq")
	if mains == 0 {
		mains = 50
	}
	return analysis.Run(samples, analysis.Options{HumFreq: mains, Trace: trace})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, err := inputPath(args)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	rep, err := analyzeFile(path, false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	if _, err = fmt.Fprintf(out, "Recording:      %s\n", path); err != nil {
		return err
	}
	return rep.WriteText(out)
}
