// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

//go:build !linux

package transport

import (
	"context"
	"errors"
)

// CANConnection is only available on Linux
type CANConnection struct{}

// OpenCAN always fails outside Linux
func OpenCAN(ctx context.Context, ifname string, frameID uint32) (*CANConnection, error) {
	return nil, &ConnectionError{Target: ifname, Err: errors.New("SocketCAN requires linux")}
}

func (c *CANConnection) Read(p []byte) (int, error)  { return 0, errors.ErrUnsupported }
func (c *CANConnection) Write(p []byte) (int, error) { return 0, errors.ErrUnsupported }
func (c *CANConnection) Close() error                { return nil }
