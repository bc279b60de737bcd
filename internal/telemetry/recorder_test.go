// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCyclePoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := CyclePoint("abc", Cycle{
		Time:      at,
		Speed:     150,
		Direction: 76,
		Command:   14,
		Waypoint:  3,
		HasFix:    true,
	})

	line := influxdb2_write.PointToLineProtocol(p, time.Second)
	assert.True(t, strings.HasPrefix(line, "control_cycle,session=abc "))
	assert.Contains(t, line, "speed=150i")
	assert.Contains(t, line, "direction=76i")
	assert.Contains(t, line, "command=14")
	assert.Contains(t, line, "waypoint=3i")
	assert.Contains(t, line, "has_fix=true")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(line), " 1700000000"))
}

func TestNewRecorder_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRecorder(ctx, config.InfluxConfig{URL: "http://127.0.0.1:1", Org: "o", Bucket: "b"}, "s", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	s.Record(Cycle{})
	s.Close()
}
