// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/spf13/cobra"
)

var (
	frameSequence int
	frameSend     bool
)

var frameCmd = &cobra.Command{
	Use:   "frame <direction> <speed>",
	Short: "Encode a command frame and print it",
	Long: `Encode one 5-byte command frame with the configured start byte and print
it as hex together with its decoded fields.

With --send the frame is also written once to the connection.`,
	Args: cobra.ExactArgs(2),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	frameCmd.Flags().IntVar(&frameSequence, "seq", 1, "Sequence number (0-255)")
	frameCmd.Flags().BoolVar(&frameSend, "send", false, "Write the frame to the connection")
}

func runFrame(cmd *cobra.Command, args []string) error {
	f, err := buildFrame(cfg.Serial.StartByte, args, frameSequence)
	if err != nil {
		return err
	}
	printFrame(cmd.OutOrStdout(), f)

	if !frameSend {
		return nil
	}

	link, err := OpenLink(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer link.Close()
	if err := link.Send(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent on %s\n", link.Name())
	return nil
}

// buildFrame parses "<direction> <speed>" and encodes the frame
func buildFrame(start byte, args []string, sequence int) (edisonproto.Frame, error) {
	direction, err := strconv.Atoi(args[0])
	if err != nil {
		return edisonproto.Frame{}, fmt.Errorf("invalid direction %q: %w", args[0], err)
	}
	speed, err := strconv.Atoi(args[1])
	if err != nil {
		return edisonproto.Frame{}, fmt.Errorf("invalid speed %q: %w", args[1], err)
	}
	return edisonproto.Encode(int(start), direction, speed, sequence)
}

func printFrame(w io.Writer, f edisonproto.Frame) {
	fmt.Fprintf(w, "%s\n", edisonproto.FormatHex(f.Bytes()))
	fmt.Fprintf(w, "  Start:     0x%02X\n", f.Start())
	fmt.Fprintf(w, "  Direction: %d\n", f.Direction())
	fmt.Fprintf(w, "  Speed:     %d\n", f.Speed())
	fmt.Fprintf(w, "  Sequence:  %d\n", f.Sequence())
	fmt.Fprintf(w, "  Checksum:  0x%02X\n", f.Checksum())
}
