// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

//go:build linux

package transport

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANConnection carries command frames in classic CAN data frames.
// Each Write becomes one frame with the configured ID; received frame
// payloads are concatenated into the read stream.
type CANConnection struct {
	conn    net.Conn
	tx      *socketcan.Transmitter
	rx      *socketcan.Receiver
	frameID uint32
	pending []byte
}

// OpenCAN dials a SocketCAN interface such as can0
func OpenCAN(ctx context.Context, ifname string, frameID uint32) (*CANConnection, error) {
	conn, err := socketcan.DialContext(ctx, "can", ifname)
	if err != nil {
		return nil, &ConnectionError{Target: ifname, Err: fmt.Errorf("socketcan dial: %w", err)}
	}

	return &CANConnection{
		conn:    conn,
		tx:      socketcan.NewTransmitter(conn),
		rx:      socketcan.NewReceiver(conn),
		frameID: frameID,
	}, nil
}

func (c *CANConnection) Write(p []byte) (int, error) {
	frame, err := newCANFrame(c.frameID, p)
	if err != nil {
		return 0, err
	}
	if err := c.tx.TransmitFrame(context.Background(), frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *CANConnection) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		if !c.rx.Receive() {
			if err := c.rx.Err(); err != nil {
				return 0, err
			}
			return 0, net.ErrClosed
		}
		if c.rx.HasErrorFrame() {
			continue
		}
		f := c.rx.Frame()
		c.pending = append(c.pending, f.Data[:f.Length]...)
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *CANConnection) Close() error {
	return c.conn.Close()
}

func newCANFrame(id uint32, p []byte) (can.Frame, error) {
	if len(p) > 8 {
		return can.Frame{}, fmt.Errorf("payload of %d bytes exceeds CAN frame", len(p))
	}
	frame := can.Frame{ID: id, Length: uint8(len(p))}
	copy(frame.Data[:], p)
	if err := frame.Validate(); err != nil {
		return can.Frame{}, err
	}
	return frame, nil
}
