// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"fmt"
	"os"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Link selection and CAN
	linkKind     string
	canInterface string

	cfgFile  string
	logLevel string

	settings = config.New()
	cfg      *config.Config
	logger   zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "edison",
	Short: "Edison vehicle control core",
	Long: `Edison - control core for a remotely driven vehicle.

Owns the vehicle's speed and steering state, sends 5-byte command frames to
the motor controller, and fuses waypoint bearing with lane centering into a
single steering command.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 9600]
  WebSocket: --link ws --url ws://host/path [--username user]
  CAN:       --link can [--can-interface can0]

Settings are read from defaults, an optional --config file and environment
variables (MIN_SPEED, MAX_SPEED, SERIAL_PORT, BAUD_RATE, PACKET_START_BYTE, ...).

For WebSocket authentication, the password is read from the EDISON_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&linkKind, "link", "", "Link kind: serial, ws or can (default: ws when --url is set, else serial)")
	rootCmd.PersistentFlags().StringVar(&canInterface, "can-interface", "", "SocketCAN interface (can link only)")

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	bindFlag(settings, "serial.port", "port")
	bindFlag(settings, "serial.baudRate", "baud")
	bindFlag(settings, "can.interface", "can-interface")
	bindFlag(settings, "logLevel", "log-level")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(settings, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.New(cfg.LogLevel, os.Stderr)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
