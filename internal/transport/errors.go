// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package transport

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when sending on a link that has been closed
var ErrClosed = errors.New("link closed")

// ErrShortWrite is returned when the device accepts fewer bytes than a frame
var ErrShortWrite = errors.New("short write")

// ConnectionError reports that a link could not be opened
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed frame write on an open or closed link
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
