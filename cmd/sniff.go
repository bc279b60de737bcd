// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/spf13/cobra"
)

var (
	sniffTimeout int
	sniffFollow  bool
)

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Wait for a valid command frame on the connection",
	Long: `Decode 5-byte command frames arriving on the connection.

Bytes before the start byte are skipped. A frame whose checksum does not
match is reported and the decoder resynchronizes on the next start byte.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

With --follow, print every frame and a statistics summary until interrupted.

Useful for checking what a controller or a bridge actually receives.`,
	RunE: runSniff,
}

func init() {
	rootCmd.AddCommand(sniffCmd)
	sniffCmd.Flags().IntVar(&sniffTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
	sniffCmd.Flags().BoolVar(&sniffFollow, "follow", false, "Print every frame until interrupted")
}

func runSniff(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Edison - Frame Sniffer\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Start byte: 0x%02X\n", cfg.Serial.StartByte)

	if sniffFollow {
		fmt.Printf("Press Ctrl+C to exit\n\n")
		return followFrames(ctx, conn, cfg.Serial.StartByte, os.Stdout)
	}

	fmt.Printf("Timeout: %d seconds\n", sniffTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	decoder := edisonproto.NewDecoder(cfg.Serial.StartByte)

	packetChan := make(chan *edisonproto.Packet, 1)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				packet, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					fmt.Printf("(%v)\n", decodeErr)
					continue
				}
				if packet != nil {
					packetChan <- packet
					return
				}
			}
		}
	}()

	select {
	case packet := <-packetChan:
		if skipped := decoder.Skipped(); skipped > 0 {
			fmt.Printf("(skipped %d bytes before sync)\n", skipped)
		}
		f := packet.Frame()
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Direction: %d\n", f.Direction())
		fmt.Printf("  Speed: %d\n", f.Speed())
		fmt.Printf("  Sequence: %d\n", f.Sequence())
		fmt.Printf("  Checksum: 0x%02X\n", f.Checksum())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-ctx.Done():
		os.Exit(1)

	case <-time.After(time.Duration(sniffTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", sniffTimeout)
		os.Exit(1)
	}

	return nil
}

// followFrames prints every decoded frame read from r and a statistics
// summary every second, until ctx is done or r fails
func followFrames(ctx context.Context, r io.Reader, start byte, w io.Writer) error {
	decoder := edisonproto.NewDecoder(start)
	stats := edisonproto.NewStatistics()

	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk)

	go func() {
		buf := make([]byte, 128)
		for {
			n, err := r.Read(buf)
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case chunks <- chunk{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stats.CalculateRates()
			fmt.Fprintf(w, "\n%s", stats.String())
			return nil

		case <-ticker.C:
			stats.CalculateRates()
			fmt.Fprintf(w, "-- %d frames, %d checksum errors, %d missed, %.1f frames/s\n",
				stats.ValidFrames, stats.ChecksumErrors, stats.MissedFrames, stats.FrameRate)

		case c := <-chunks:
			for _, b := range c.data {
				packet, err := decoder.DecodeByte(b)
				if err != nil {
					stats.Update(nil, err)
					fmt.Fprintf(w, "[ERROR] %v\n", err)
					continue
				}
				if packet != nil {
					stats.Update(packet, nil)
					fmt.Fprint(w, edisonproto.FormatPacket(packet))
				}
			}
			if c.err != nil {
				stats.CalculateRates()
				fmt.Fprintf(w, "\n%s", stats.String())
				if c.err == io.EOF {
					return nil
				}
				return c.err
			}
		}
	}
}
