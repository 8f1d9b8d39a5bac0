package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsUSBOnly bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports the ground link could use",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			return fmt.Errorf("enumerate serial ports: %w", err)
		}
		printPorts(cmd.OutOrStdout(), ports, portsUSBOnly)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsUSBOnly, "usb", false, "Only list USB serial adapters")
}

func printPorts(w io.Writer, ports []*enumerator.PortDetails, usbOnly bool) {
	n := 0
	for _, p := range ports {
		if usbOnly && !p.IsUSB {
			continue
		}
		n++
		if !p.IsUSB {
			fmt.Fprintf(w, "%s\n", p.Name)
			continue
		}
		fmt.Fprintf(w, "%s  usb %s:%s", p.Name, p.VID, p.PID)
		if p.SerialNumber != "" {
			fmt.Fprintf(w, "  serial %s", p.SerialNumber)
		}
		fmt.Fprintln(w)
	}
	if n == 0 {
		fmt.Fprintln(w, "no serial ports found")
	}
}
