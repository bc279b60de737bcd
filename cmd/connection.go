// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("EDISON_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// resolveLinkKind picks the link kind from --link, falling back to ws when a
// URL was given
func resolveLinkKind() string {
	if linkKind != "" {
		return linkKind
	}
	if wsURL != "" {
		return "ws"
	}
	return "serial"
}

// OpenConnection opens a serial, WebSocket or CAN connection based on flags
// and settings. The returned string describes the connection.
func OpenConnection(ctx context.Context, c *config.Config) (transport.Connection, string, error) {
	switch kind := resolveLinkKind(); kind {
	case "ws":
		if wsURL == "" {
			return nil, "", fmt.Errorf("--url is required for the ws link")
		}
		opts := transport.WebSocketOptions{Username: wsUsername, SkipSSLVerify: wsNoSSLVerify}
		if wsUsername != "" {
			password, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			opts.Password = password
		}
		conn, err := transport.OpenWebSocket(ctx, wsURL, opts)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil

	case "can":
		conn, err := transport.OpenCAN(ctx, c.CAN.Interface, c.CAN.FrameID)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("CAN: %s id 0x%X", c.CAN.Interface, c.CAN.FrameID), nil

	case "serial":
		opts := transport.PortOptions{BaudRate: c.Serial.BaudRate}
		conn, err := transport.OpenSerial(c.Serial.Port, opts)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", c.Serial.Port, c.Serial.BaudRate), nil

	default:
		return nil, "", fmt.Errorf("unknown link kind %q (use serial, ws or can)", kind)
	}
}

// OpenLink opens the configured connection and wraps it in a frame link
func OpenLink(ctx context.Context, c *config.Config, log zerolog.Logger) (*transport.Link, error) {
	conn, connInfo, err := OpenConnection(ctx, c)
	if err != nil {
		return nil, err
	}
	link, err := transport.NewLink(conn, connInfo, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Str("connection", connInfo).Msg("Link open")
	return link, nil
}
