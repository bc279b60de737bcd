// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package pilot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/navigation"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/steering"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVehicle struct {
	mu     sync.Mutex
	speed  int
	angles []int
}

func (v *fakeVehicle) SetSteering(angle int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.angles = append(v.angles, angle)
}

func (v *fakeVehicle) Snapshot() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	direction := 90
	if len(v.angles) > 0 {
		direction = v.angles[len(v.angles)-1]
	}
	return v.speed, direction
}

type fixedFix struct {
	fix navigation.Fix
	ok  bool
}

func (f fixedFix) Current() (navigation.Fix, bool) { return f.fix, f.ok }

type recordingSink struct {
	mu     sync.Mutex
	cycles []telemetry.Cycle
}

func (s *recordingSink) Record(c telemetry.Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, c)
}

func (s *recordingSink) Close() {}

func newEngine(t *testing.T) *steering.Engine {
	t.Helper()
	e, err := steering.NewEngine(config.FusionConfig{
		Kp:               0.8,
		Ki:               0.01,
		Kd:               0.05,
		MaxSteeringAngle: 30,
		WaypointWeight:   0.6,
		LaneWeight:       0.4,
		CurvatureGain:    0.12,
		HistorySize:      5,
		ControlInterval:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	return e
}

var origin = navigation.Fix{Position: navigation.Point{Lat: 0, Lon: 0}, Heading: 0}

func newPilot(t *testing.T, fixes FixSource, route Guide) (*Pilot, *fakeVehicle, *recordingSink) {
	t.Helper()
	v := &fakeVehicle{speed: 150}
	sink := &recordingSink{}
	p := New(Config{
		Engine:     newEngine(t),
		Vehicle:    v,
		Route:      route,
		Fixes:      fixes,
		Sink:       sink,
		FrontAngle: 90,
		Interval:   100 * time.Millisecond,
		Log:        zerolog.Nop(),
	})
	return p, v, sink
}

func TestCycle_NoFixKeepsLane(t *testing.T) {
	route := navigation.NewRoute([]navigation.Point{{Lat: 0, Lon: 0.001}}, 5)
	p, v, sink := newPilot(t, fixedFix{}, route)

	rec, err := p.Cycle(time.Unix(100, 0))
	require.NoError(t, err)
	assert.False(t, rec.HasFix)
	assert.Equal(t, 0.0, rec.Command)
	assert.Equal(t, []int{90}, v.angles)
	assert.Len(t, sink.cycles, 1)
}

func TestCycle_SteersTowardWaypoint(t *testing.T) {
	// Due east of a north-facing vehicle: 90 degrees right, saturates
	route := navigation.NewRoute([]navigation.Point{{Lat: 0, Lon: 0.001}}, 5)
	p, v, sink := newPilot(t, fixedFix{fix: origin, ok: true}, route)

	rec, err := p.Cycle(time.Unix(100, 0))
	require.NoError(t, err)
	assert.True(t, rec.HasFix)
	assert.InDelta(t, 90.0, rec.WaypointAngle, 0.01)
	assert.Equal(t, 30.0, rec.Command)
	assert.Equal(t, 60, rec.Direction)
	assert.Equal(t, []int{60}, v.angles)
	assert.Equal(t, 150, rec.Speed)
	assert.Equal(t, 0, rec.Waypoint)
	assert.InDelta(t, 111.2, rec.Distance, 0.5)
	require.Len(t, sink.cycles, 1)
	assert.Equal(t, rec, sink.cycles[0])
}

func TestCycle_ZeroDeltaKeepsPreviousCommand(t *testing.T) {
	route := navigation.NewRoute([]navigation.Point{{Lat: 0, Lon: 0.001}}, 5)
	p, v, _ := newPilot(t, fixedFix{fix: origin, ok: true}, route)

	now := time.Unix(100, 0)
	_, err := p.Cycle(now)
	require.NoError(t, err)

	rec, err := p.Cycle(now)
	require.NoError(t, err)
	assert.Equal(t, 30.0, rec.Command)
	assert.Equal(t, []int{60, 60}, v.angles)
}

func TestCycle_RouteComplete(t *testing.T) {
	route := navigation.NewRoute([]navigation.Point{{Lat: 0, Lon: 0.00001}}, 5)
	p, v, sink := newPilot(t, fixedFix{fix: origin, ok: true}, route)

	_, err := p.Cycle(time.Unix(100, 0))
	assert.True(t, errors.Is(err, navigation.ErrRouteComplete))
	assert.Empty(t, v.angles)
	assert.Empty(t, sink.cycles)
}

func TestRun_StopsAtDestination(t *testing.T) {
	route := navigation.NewRoute([]navigation.Point{{Lat: 0, Lon: 0.00001}}, 5)
	p, _, _ := newPilot(t, fixedFix{fix: origin, ok: true}, route)
	p.cfg.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, p.Run(ctx))
}

func TestRun_Cancel(t *testing.T) {
	p, _, _ := newPilot(t, nil, nil)
	p.cfg.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
