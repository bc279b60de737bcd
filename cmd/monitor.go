// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/transport"
	"github.com/spf13/cobra"
)

var monitorList bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display lines sent by the motor controller",
	Long: `Continuously print the newline-terminated lines the motor controller
writes back, each with a local timestamp.

With --list, print the serial ports present on this host and exit.

Supports serial, WebSocket and CAN connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorList, "list", false, "List serial ports and exit")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorList {
		ports, err := transport.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	link, err := OpenLink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("Edison - Controller Monitor\n")
	fmt.Printf("Connection: %s\n", link.Name())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	err = link.ReadLines(ctx, func(line string) {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), line)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
