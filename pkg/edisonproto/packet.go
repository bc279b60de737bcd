// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import "time"

// Packet is a decoded frame together with its arrival time
type Packet struct {
	frame     Frame
	timestamp time.Time
}

// Frame returns the decoded frame
func (p *Packet) Frame() Frame {
	return p.frame
}

// Timestamp returns when the final byte of the frame was decoded
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
