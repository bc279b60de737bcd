// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vision

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Client streams lane samples to a Server
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a lane endpoint such as ws://localhost:8765/lane
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lane stream dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Send writes one lane sample
func (c *Client) Send(s LaneSample) error {
	data, err := EncodeLaneSample(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close sends a normal closure and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
