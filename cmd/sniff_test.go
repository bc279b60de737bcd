// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, direction, speed, seq int) []byte {
	t.Helper()
	f, err := edisonproto.Encode(0xAA, direction, speed, seq)
	require.NoError(t, err)
	return f.Bytes()
}

func TestFollowFrames(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x00, 0x13)
	stream = append(stream, mustFrame(t, 90, 0, 1)...)
	stream = append(stream, 0xAA, 90, 150, 2, 0x00) // corrupted checksum
	stream = append(stream, mustFrame(t, 60, 150, 3)...)

	var out bytes.Buffer
	err := followFrames(context.Background(), bytes.NewReader(stream), 0xAA, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, " OK\n"))
	assert.Contains(t, text, "[ERROR] checksum mismatch")
	assert.Contains(t, text, "Checksum Errors:        1")
	assert.Contains(t, text, "Sequence Gaps:          1 (1 missed)")
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestFollowFrames_ReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	var out bytes.Buffer
	err := followFrames(context.Background(), failingReader{err: boom}, 0xAA, &out)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "=== Statistics")
}

var _ io.Reader = failingReader{}
