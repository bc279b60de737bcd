// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex bytes...>",
	Short: "Decode captured frame bytes",
	Long: `Decode hex bytes captured from the link, for example

  edison decode AA 5A 96 01 9B

Exactly one frame is checked strictly: the start byte and checksum must match.
Longer captures are run through the resyncing decoder and every frame found
is printed together with the number of checksum failures.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := parseHexBytes(args)
		if err != nil {
			return err
		}
		return decodeBytes(cmd.OutOrStdout(), cfg.Serial.StartByte, data)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// parseHexBytes accepts "AA 5A", "AA5A" and "0xAA" forms
func parseHexBytes(args []string) ([]byte, error) {
	joined := strings.Join(args, "")
	joined = strings.ReplaceAll(joined, "0x", "")
	joined = strings.ReplaceAll(joined, "0X", "")
	joined = strings.ReplaceAll(joined, " ", "")
	if len(joined)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits in %q", strings.Join(args, " "))
	}

	data := make([]byte, 0, len(joined)/2)
	for i := 0; i < len(joined); i += 2 {
		v, err := strconv.ParseUint(joined[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q: %w", joined[i:i+2], err)
		}
		data = append(data, byte(v))
	}
	return data, nil
}

func decodeBytes(w io.Writer, start byte, data []byte) error {
	if len(data) == edisonproto.FrameSize {
		f, err := edisonproto.ParseFrame(data, start)
		if err != nil {
			return err
		}
		printFrame(w, f)
		return nil
	}

	decoder := edisonproto.NewDecoder(start)
	packets, failures := decoder.Decode(data)
	for _, p := range packets {
		fmt.Fprintln(w, edisonproto.FormatFrame(p.Frame()))
	}
	fmt.Fprintf(w, "%d frames, %d checksum errors, %d bytes skipped\n",
		len(packets), failures, decoder.Skipped())
	if len(packets) == 0 && failures > 0 {
		return fmt.Errorf("no valid frame in %d bytes", len(data))
	}
	return nil
}
