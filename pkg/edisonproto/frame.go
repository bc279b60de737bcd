// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import "fmt"

// RangeError reports a frame field outside of the 0-255 byte range
type RangeError struct {
	Field string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of byte range: %d", e.Field, e.Value)
}

// Frame is a single 5-byte command frame as it appears on the wire
type Frame [FrameSize]byte

// Start returns the frame start byte
func (f Frame) Start() byte { return f[OffsetStart] }

// Direction returns the steering angle byte
func (f Frame) Direction() byte { return f[OffsetDirection] }

// Speed returns the speed byte
func (f Frame) Speed() byte { return f[OffsetSpeed] }

// Sequence returns the sequence number
func (f Frame) Sequence() byte { return f[OffsetSequence] }

// Checksum returns the checksum byte carried by the frame
func (f Frame) Checksum() byte { return f[OffsetChecksum] }

// Bytes returns a copy of the frame as a slice, ready for writing
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// Valid reports whether the checksum matches the first four bytes
func (f Frame) Valid() bool {
	return Checksum(f[:OffsetChecksum]...) == f[OffsetChecksum]
}

// Checksum computes the modulo-256 sum of the given bytes
func Checksum(b ...byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// Encode builds a frame from its field values.
// Every field must fit in a byte; otherwise a *RangeError is returned.
func Encode(start, direction, speed, sequence int) (Frame, error) {
	fields := []struct {
		name  string
		value int
	}{
		{"start", start},
		{"direction", direction},
		{"speed", speed},
		{"sequence", sequence},
	}

	var f Frame
	for i, field := range fields {
		if field.value < 0 || field.value > 0xFF {
			return Frame{}, &RangeError{Field: field.name, Value: field.value}
		}
		f[i] = byte(field.value)
	}
	f[OffsetChecksum] = Checksum(f[:OffsetChecksum]...)

	return f, nil
}

// ParseFrame copies b into a Frame and verifies its start byte and checksum
func ParseFrame(b []byte, start byte) (Frame, error) {
	var f Frame
	if len(b) != FrameSize {
		return f, fmt.Errorf("invalid frame length: %d (want %d)", len(b), FrameSize)
	}
	copy(f[:], b)

	if f.Start() != start {
		return f, fmt.Errorf("invalid start byte: 0x%02X (want 0x%02X)", f.Start(), start)
	}
	if !f.Valid() {
		return f, fmt.Errorf("checksum mismatch: expected 0x%02X, got 0x%02X", Checksum(f[:OffsetChecksum]...), f.Checksum())
	}
	return f, nil
}
