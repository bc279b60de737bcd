// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import (
	"fmt"
	"time"
)

// Decoder reassembles command frames from a byte stream.
// Bytes are discarded until the start byte is seen. When a collected frame
// fails its checksum the decoder resynchronizes on the next start byte
// already buffered, so a stray start value inside a frame costs at most one
// frame.
type Decoder struct {
	start   byte
	buf     []byte
	skipped int
}

// NewDecoder creates a decoder that synchronizes on the given start byte
func NewDecoder(start byte) *Decoder {
	return &Decoder{
		start: start,
		buf:   make([]byte, 0, FrameSize),
	}
}

// Reset drops any partially collected frame
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Skipped returns the number of bytes discarded while searching for a start byte
func (d *Decoder) Skipped() int {
	return d.skipped
}

// DecodeByte feeds one byte into the decoder.
// Returns a completed packet, or nil if the frame is incomplete.
// Returns an error when a complete frame fails its checksum.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	if len(d.buf) == 0 {
		if b != d.start {
			d.skipped++
			return nil, nil
		}
		d.buf = append(d.buf, b)
		return nil, nil
	}

	d.buf = append(d.buf, b)
	if len(d.buf) < FrameSize {
		return nil, nil
	}

	var f Frame
	copy(f[:], d.buf)
	if f.Valid() {
		d.Reset()
		return &Packet{frame: f, timestamp: time.Now()}, nil
	}

	err := fmt.Errorf("checksum mismatch: expected 0x%02X, got 0x%02X", Checksum(f[:OffsetChecksum]...), f.Checksum())
	d.resync()
	return nil, err
}

// Decode feeds a whole buffer and returns every complete packet found in it.
// Checksum failures are counted, not returned.
func (d *Decoder) Decode(data []byte) (packets []*Packet, failures int) {
	for _, b := range data {
		p, err := d.DecodeByte(b)
		if err != nil {
			failures++
			continue
		}
		if p != nil {
			packets = append(packets, p)
		}
	}
	return packets, failures
}

// resync keeps the buffered tail starting at the next start byte, if any
func (d *Decoder) resync() {
	for i := 1; i < len(d.buf); i++ {
		if d.buf[i] == d.start {
			n := copy(d.buf, d.buf[i:])
			d.skipped += i
			d.buf = d.buf[:n]
			return
		}
	}
	d.skipped += len(d.buf)
	d.Reset()
}
