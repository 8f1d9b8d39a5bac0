package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sweeney/station-controller/internal/protocol"
)

var frameU32 string

var frameCmd = &cobra.Command{
	Use:   "frame <opcode> [payload bytes...]",
	Short: "Print an encoded ground-link frame",
	Long: `Encode one 10-byte frame and print it in hex.

The opcode is a protocol name (REQ_TEMP, SET_DAY_TIME, ...) or a number.
Payload bytes are numbers (0x00, 255). --u32 encodes a little-endian
uint32 instead, for SET_TIME and the schedule opcodes.

Examples:
  station-controller frame REQ_TEMP
  station-controller frame SWITCH_FAN 0x00
  station-controller frame SET_DAY_TIME --u32 28800`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	frameCmd.Flags().StringVar(&frameU32, "u32", "", "Encode this value as a little-endian uint32 payload")
}

func runFrame(cmd *cobra.Command, args []string) error {
	op, err := protocol.ParseOpcode(args[0])
	if err != nil {
		return err
	}

	payload, err := framePayload(args[1:], frameU32)
	if err != nil {
		return err
	}

	writeFrame(cmd.OutOrStdout(), protocol.Encode(op, payload))
	return nil
}

// framePayload builds the payload from byte arguments or a uint32 value.
func framePayload(args []string, u32 string) ([]byte, error) {
	if u32 != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--u32 and payload bytes are exclusive")
		}
		v, err := strconv.ParseUint(u32, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad --u32 value %q: %w", u32, err)
		}
		b := make([]byte, 4)
		protocol.PutUint32(b, uint32(v))
		return b, nil
	}

	if len(args) > protocol.PayloadSize {
		return nil, fmt.Errorf("payload is %d bytes (max %d)", len(args), protocol.PayloadSize)
	}
	b := make([]byte, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad payload byte %q: %w", a, err)
		}
		b = append(b, byte(v))
	}
	return b, nil
}

func writeFrame(w io.Writer, f protocol.Frame) {
	fmt.Fprintf(w, "% X\n", f[:])
	fmt.Fprintf(w, "%s\n", protocol.FormatFrame(f))
}
