// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package telemetry records control-cycle data points to InfluxDB.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

// Measurement is the InfluxDB measurement name for control cycles
const Measurement = "control_cycle"

// Cycle is one control-loop iteration
type Cycle struct {
	Time          time.Time
	Speed         int
	Direction     int
	Command       float64
	WaypointAngle float64
	LaneTerm      float64
	Compensation  float64
	LaneOffset    float64
	Curvature     float64
	Distance      float64 // meters to the active waypoint
	Waypoint      int
	HasFix        bool
}

// Sink accepts control cycles
type Sink interface {
	Record(Cycle)
	Close()
}

// Nop discards every cycle
type Nop struct{}

func (Nop) Record(Cycle) {}
func (Nop) Close()       {}

// Recorder writes cycles to InfluxDB through the non-blocking write API
type Recorder struct {
	client  influxdb2.Client
	writer  influxdb2_api.WriteAPI
	session string
	log     zerolog.Logger
}

// NewRecorder connects to InfluxDB and verifies it is reachable
func NewRecorder(ctx context.Context, cfg config.InfluxConfig, session string, log zerolog.Logger) (*Recorder, error) {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if err == nil {
			err = fmt.Errorf("server not ready")
		}
		return nil, fmt.Errorf("influxdb at %s unavailable: %w", cfg.URL, err)
	}

	r := &Recorder{
		client:  client,
		writer:  client.WriteAPI(cfg.Org, cfg.Bucket),
		session: session,
		log:     log,
	}

	errorsCh := r.writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			r.log.Error().Err(writeErr).Str("bucket", cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB recorder initialized")
	return r, nil
}

// Record queues one cycle for writing
func (r *Recorder) Record(c Cycle) {
	r.writer.WritePoint(CyclePoint(r.session, c))
}

// Close flushes pending points and closes the client
func (r *Recorder) Close() {
	r.writer.Flush()
	r.client.Close()
}

// CyclePoint converts a cycle to an InfluxDB point tagged with session
func CyclePoint(session string, c Cycle) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		Measurement,
		map[string]string{
			"session": session,
		},
		map[string]interface{}{
			"speed":          c.Speed,
			"direction":      c.Direction,
			"command":        c.Command,
			"waypoint_angle": c.WaypointAngle,
			"lane_term":      c.LaneTerm,
			"compensation":   c.Compensation,
			"lane_offset":    c.LaneOffset,
			"curvature":      c.Curvature,
			"distance":       c.Distance,
			"waypoint":       c.Waypoint,
			"has_fix":        c.HasFix,
		},
		c.Time,
	)
}
