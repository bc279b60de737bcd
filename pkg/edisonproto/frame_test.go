// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		direction int
		speed     int
		sequence  int
		want      Frame
	}{
		{
			name:      "straight ahead at minimum speed",
			start:     0xAA,
			direction: 90,
			speed:     100,
			sequence:  1,
			want:      Frame{0xAA, 90, 100, 1, 105},
		},
		{
			name:      "checksum wraps modulo 256",
			start:     0xAA,
			direction: 255,
			speed:     255,
			sequence:  255,
			want:      Frame{0xAA, 255, 255, 255, 167},
		},
		{
			name:      "all zero",
			start:     0,
			direction: 0,
			speed:     0,
			sequence:  0,
			want:      Frame{0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.start, tt.direction, tt.speed, tt.sequence)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode() = % X, want % X", got[:], tt.want[:])
			}
			if !got.Valid() {
				t.Errorf("Encode() produced frame with invalid checksum")
			}
		})
	}
}

func TestEncode_RangeError(t *testing.T) {
	tests := []struct {
		name      string
		direction int
		speed     int
		field     string
	}{
		{"direction above byte", 256, 100, "direction"},
		{"direction negative", -1, 100, "direction"},
		{"speed above byte", 90, 300, "speed"},
		{"speed negative", 90, -5, "speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(0xAA, tt.direction, tt.speed, 0)
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("Encode() error = %v, want *RangeError", err)
			}
			if rangeErr.Field != tt.field {
				t.Errorf("RangeError.Field = %q, want %q", rangeErr.Field, tt.field)
			}
		})
	}
}

func TestChecksumProperty(t *testing.T) {
	for dir := 0; dir <= 255; dir += 17 {
		for speed := 0; speed <= 255; speed += 13 {
			f, err := Encode(0xAA, dir, speed, dir^speed)
			if err != nil {
				t.Fatalf("Encode(%d, %d) error = %v", dir, speed, err)
			}
			sum := (int(f[0]) + int(f[1]) + int(f[2]) + int(f[3])) % 256
			if int(f.Checksum()) != sum {
				t.Fatalf("checksum = %d, want %d for % X", f.Checksum(), sum, f[:])
			}
		}
	}
}

func TestParseFrame(t *testing.T) {
	good := Frame{0xAA, 90, 100, 1, 105}

	if _, err := ParseFrame(good.Bytes(), 0xAA); err != nil {
		t.Errorf("ParseFrame(valid) error = %v", err)
	}
	if _, err := ParseFrame(good.Bytes()[:4], 0xAA); err == nil {
		t.Error("ParseFrame(short) expected error")
	}
	if _, err := ParseFrame(good.Bytes(), 0x55); err == nil {
		t.Error("ParseFrame(wrong start) expected error")
	}

	bad := good
	bad[OffsetChecksum]++
	if _, err := ParseFrame(bad.Bytes(), 0xAA); err == nil {
		t.Error("ParseFrame(bad checksum) expected error")
	}
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	if s.Last() != 0 {
		t.Fatalf("Last() before use = %d, want 0", s.Last())
	}
	if got := s.Next(); got != 1 {
		t.Fatalf("first Next() = %d, want 1", got)
	}
	for i := 2; i <= 255; i++ {
		s.Next()
	}
	if got := s.Next(); got != 0 {
		t.Errorf("Next() after 255 = %d, want 0 (wrap)", got)
	}
	if got := s.Next(); got != 1 {
		t.Errorf("Next() after wrap = %d, want 1", got)
	}
}
