// cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/qrsdetect/internal/audio"
	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices and serial ports",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	capture := audio.New(audio.DefaultConfig())
	if err := capture.Init(); err != nil {
		return err
	}
	defer capture.Close()

	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Capture devices (device_index):")
	if len(devices) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for i, d := range devices {
		mark := ""
		if d.IsDefault != 0 {
			mark = " (default)"
		}
		fmt.Fprintf(out, "  [%d] %s%s\n", i, d.Name(), mark)
	}

	ports, err := telemetry.ListPorts()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Serial ports (serial_port, debug_port):")
	if len(ports) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, p := range ports {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}
