// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
)

// Connection is the byte stream underneath a Link
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// OpenSerial opens the microcontroller serial port
func OpenSerial(portName string, opts PortOptions) (*SerialConnection, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, &ConnectionError{Target: portName, Err: err}
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, &ConnectionError{Target: portName, Err: err}
	}

	return &SerialConnection{port: port}, nil
}

// ListPorts returns the serial ports present on the host
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection carries the byte stream over binary WebSocket
// messages, for vehicles whose serial port is exposed by a network bridge.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// Text messages are bridge chatter, not device bytes
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// WebSocketOptions holds bridge authentication settings
type WebSocketOptions struct {
	Username      string
	Password      string
	SkipSSLVerify bool
}

// OpenWebSocket dials a serial bridge with optional HTTP Basic auth
func OpenWebSocket(ctx context.Context, wsURL string, opts WebSocketOptions) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, &ConnectionError{Target: wsURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, &ConnectionError{Target: wsURL, Err: fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, &ConnectionError{Target: wsURL, Err: err}
	}

	return &WebSocketConnection{conn: conn}, nil
}
