// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package transport

import (
	"bytes"
	"io"
	"sync"
)

// testConnection is a Connection with scripted reads and captured writes
type testConnection struct {
	mu sync.Mutex

	reader io.Reader
	writes bytes.Buffer

	// writeError is returned by every Write call if set
	writeError error
	// shortWrite makes Write report one byte fewer than requested
	shortWrite bool

	closed bool
}

func newTestConnection(r io.Reader) *testConnection {
	if r == nil {
		r = bytes.NewReader(nil)
	}
	return &testConnection{reader: r}
}

func (c *testConnection) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *testConnection) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeError != nil {
		return 0, c.writeError
	}
	if c.shortWrite {
		c.writes.Write(p[:len(p)-1])
		return len(p) - 1, nil
	}
	return c.writes.Write(p)
}

func (c *testConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if closer, ok := c.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *testConnection) written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.writes.Bytes()...)
}
