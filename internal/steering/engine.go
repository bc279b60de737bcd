// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package steering fuses a waypoint bearing with lane keeping into one
// bounded steering command per control cycle.
//
// Commands are relative degrees: 0 is straight ahead, positive steers right
// and negative steers left. The lane term is a PID on the lane offset; the
// curvature term anticipates bends from the trend of recent lane samples.
package steering

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"gonum.org/v1/gonum/stat"
)

const instrumentationName = "github.com/SuyogPrasai/edisonn-raspberrypi/internal/steering"

// LaneSample is one lane observation from the vision system
type LaneSample struct {
	Offset    float64 // normalized lane center, -1 (left) to 1 (right)
	Curvature float64 // 1/m
}

// Output is the result of one fusion cycle
type Output struct {
	Command       float64 // final clamped command, degrees
	WaypointAngle float64
	LaneTerm      float64 // PID output
	Compensation  float64 // curvature anticipation
}

// Engine holds the fusion state. UpdateLane and Step may be called from
// different goroutines.
type Engine struct {
	cfg config.FusionConfig

	mu      sync.Mutex
	pid     *PIDController
	lane    LaneSample
	history *Ring[LaneSample]
	last    Output

	cycles    metric.Int64Counter
	rejected  metric.Int64Counter
	saturated metric.Int64Counter
}

// NewEngine creates an engine from the fusion settings
func NewEngine(cfg config.FusionConfig) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		pid:     NewPIDController(PIDConfig{Kp: cfg.Kp, Ki: cfg.Ki, Kd: cfg.Kd}),
		history: NewRing[LaneSample](cfg.HistorySize),
	}

	m := otel.Meter(instrumentationName)
	var err error
	e.cycles, err = m.Int64Counter(
		"edison.steering.cycles",
		metric.WithDescription("Fusion cycles computed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycles counter: %w", err)
	}
	e.rejected, err = m.Int64Counter(
		"edison.steering.rejected",
		metric.WithDescription("Fusion cycles rejected for a non-positive time delta"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	e.saturated, err = m.Int64Counter(
		"edison.steering.saturated",
		metric.WithDescription("Fusion cycles clamped at the steering limit"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating saturated counter: %w", err)
	}

	return e, nil
}

// UpdateLane records the latest lane observation
func (e *Engine) UpdateLane(offset, curvature float64) error {
	if math.IsNaN(offset) || offset < -1 || offset > 1 {
		return fmt.Errorf("lane offset %v outside [-1, 1]", offset)
	}
	if math.IsNaN(curvature) || math.IsInf(curvature, 0) {
		return fmt.Errorf("lane curvature %v is not finite", curvature)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sample := LaneSample{Offset: offset, Curvature: curvature}
	e.lane = sample
	e.history.Push(sample)
	return nil
}

// Lane returns the latest lane observation
func (e *Engine) Lane() LaneSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lane
}

// Step runs one fusion cycle for a waypoint angle (relative degrees, positive
// right), the current speed and the seconds since the previous cycle.
//
// A non-positive dt returns the previous output with ErrInvalidTimeDelta and
// leaves the PID state untouched.
func (e *Engine) Step(waypointAngle float64, speed float64, dt float64) (Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	laneAngle := e.lane.Offset * e.cfg.MaxSteeringAngle
	laneTerm, err := e.pid.Update(laneAngle, dt)
	if err != nil {
		e.rejected.Add(context.Background(), 1)
		return e.last, fmt.Errorf("steering cycle: %w", err)
	}

	comp := e.curvatureCompensation(speed)
	combined := Blend(waypointAngle, laneTerm+comp, e.cfg.WaypointWeight, e.cfg.LaneWeight, e.cfg.MaxSteeringAngle)
	command := ClampFloat(combined, -e.cfg.MaxSteeringAngle, e.cfg.MaxSteeringAngle)
	if command != combined {
		e.saturated.Add(context.Background(), 1)
	}

	e.last = Output{
		Command:       command,
		WaypointAngle: waypointAngle,
		LaneTerm:      laneTerm,
		Compensation:  comp,
	}
	e.cycles.Add(context.Background(), 1)
	return e.last, nil
}

// Last returns the output of the most recent successful cycle
func (e *Engine) Last() Output {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Diagnostics returns the PID state
func (e *Engine) Diagnostics() PIDDiagnostics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pid.Diagnostics()
}

// Reset clears the PID accumulators and the lane history. Call it when the
// controller is re-armed.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pid.Reset()
	e.history.Clear()
	e.lane = LaneSample{}
	e.last = Output{}
}

func (e *Engine) curvatureCompensation(speed float64) float64 {
	if e.history.Len() < 2 {
		return 0
	}
	samples := e.history.Values()
	curvatures := make([]float64, len(samples))
	for i, s := range samples {
		curvatures[i] = s.Curvature
	}
	return speed * stat.Mean(Gradient(curvatures), nil) * e.cfg.CurvatureGain
}

// Blend mixes the waypoint and lane angles after normalizing both by
// maxAngle, and scales the result back to degrees.
func Blend(waypointAngle, laneAngle, waypointWeight, laneWeight, maxAngle float64) float64 {
	wp := waypointAngle / maxAngle
	lane := laneAngle / maxAngle
	return (waypointWeight*wp + laneWeight*lane) * maxAngle
}

// Gradient returns the discrete derivative of x with unit spacing: one-sided
// differences at the ends and central differences inside.
func Gradient(x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return make([]float64, n)
	}
	g := make([]float64, n)
	g[0] = x[1] - x[0]
	g[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (x[i+1] - x[i-1]) / 2
	}
	return g
}

// ServoAngle converts a relative command to an absolute servo angle around
// front. Right turns lower the servo angle.
func ServoAngle(command float64, front int) int {
	return front - int(math.Round(command))
}

// Steerer receives absolute servo angles
type Steerer interface {
	SetSteering(angle int)
}

// Apply converts command to a servo angle around front, hands it to s and
// returns it.
func Apply(s Steerer, command float64, front int) int {
	angle := ServoAngle(command, front)
	s.SetSteering(angle)
	return angle
}
