// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package pilot runs the autonomous control loop. Each cycle reads the latest
// location fix, derives the waypoint angle from the route, runs the steering
// fusion engine and applies the result to the vehicle state.
package pilot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/navigation"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/steering"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/telemetry"
	"github.com/rs/zerolog"
)

// Vehicle is the part of the vehicle state the pilot drives
type Vehicle interface {
	SetSteering(angle int)
	Snapshot() (speed, direction int)
}

// FixSource provides the latest location fix
type FixSource interface {
	Current() (navigation.Fix, bool)
}

// Guide turns a fix into waypoint guidance
type Guide interface {
	Guide(fix navigation.Fix) (navigation.Guidance, error)
}

// Config wires a pilot. Route and Fixes may be nil for lane keeping only.
type Config struct {
	Engine     *steering.Engine
	Vehicle    Vehicle
	Route      Guide
	Fixes      FixSource
	Sink       telemetry.Sink
	FrontAngle int
	Interval   time.Duration
	Log        zerolog.Logger
}

// Pilot is the control loop state
type Pilot struct {
	cfg    Config
	log    zerolog.Logger
	last   time.Time
	cycles atomic.Uint64
}

// New creates a pilot
func New(cfg Config) *Pilot {
	if cfg.Sink == nil {
		cfg.Sink = telemetry.Nop{}
	}
	return &Pilot{cfg: cfg, log: cfg.Log}
}

// Cycle runs one control iteration at now. It returns
// navigation.ErrRouteComplete once the final waypoint has been reached.
func (p *Pilot) Cycle(now time.Time) (telemetry.Cycle, error) {
	rec := telemetry.Cycle{Time: now}

	var waypointAngle float64
	if p.cfg.Fixes != nil {
		if fix, ok := p.cfg.Fixes.Current(); ok {
			rec.HasFix = true
			if p.cfg.Route != nil {
				g, err := p.cfg.Route.Guide(fix)
				if err != nil {
					return rec, err
				}
				waypointAngle = g.Turn
				rec.Distance = g.Distance
				rec.Waypoint = g.Index
			}
		}
	}

	dt := p.cfg.Interval.Seconds()
	if !p.last.IsZero() {
		dt = now.Sub(p.last).Seconds()
	}
	p.last = now

	speed, _ := p.cfg.Vehicle.Snapshot()
	out, err := p.cfg.Engine.Step(waypointAngle, float64(speed), dt)
	if err != nil {
		if !errors.Is(err, steering.ErrInvalidTimeDelta) {
			return rec, err
		}
		p.log.Warn().Err(err).Float64("dt", dt).Msg("Keeping previous steering command")
	}

	rec.Direction = steering.Apply(p.cfg.Vehicle, out.Command, p.cfg.FrontAngle)
	rec.Speed = speed
	rec.Command = out.Command
	rec.WaypointAngle = out.WaypointAngle
	rec.LaneTerm = out.LaneTerm
	rec.Compensation = out.Compensation
	lane := p.cfg.Engine.Lane()
	rec.LaneOffset = lane.Offset
	rec.Curvature = lane.Curvature

	p.cfg.Sink.Record(rec)
	if n := p.cycles.Add(1); n%50 == 0 {
		p.log.Debug().
			Float64("command", out.Command).
			Float64("waypoint_angle", out.WaypointAngle).
			Float64("lane_term", out.LaneTerm).
			Int("servo", rec.Direction).
			Int("speed", speed).
			Msg("Control cycle")
	}
	return rec, nil
}

// Run cycles at the configured interval until ctx is done or the route is
// complete. Route completion returns nil.
func (p *Pilot) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.cfg.Interval).Msg("Control loop started")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Uint64("cycles", p.cycles.Load()).Msg("Control loop stopped")
			return ctx.Err()

		case now := <-ticker.C:
			if _, err := p.Cycle(now); err != nil {
				if errors.Is(err, navigation.ErrRouteComplete) {
					p.log.Info().Uint64("cycles", p.cycles.Load()).Msg("Destination reached")
					return nil
				}
				return err
			}
		}
	}
}

// Cycles returns the number of completed cycles
func (p *Pilot) Cycles() uint64 {
	return p.cycles.Load()
}
