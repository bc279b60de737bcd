// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package steering

import "errors"

// ErrInvalidTimeDelta is returned for a non-positive time step
var ErrInvalidTimeDelta = errors.New("time delta must be positive")

// PIDConfig holds PID controller gains
type PIDConfig struct {
	Kp float64
	Ki float64
	Kd float64
}

// PIDController implements a discrete PID controller on the lane error
type PIDController struct {
	cfg PIDConfig

	// State
	integral  float64
	prevError float64
}

// NewPIDController creates a new PID controller with given configuration
func NewPIDController(cfg PIDConfig) *PIDController {
	return &PIDController{cfg: cfg}
}

// Reset clears the PID state
func (pid *PIDController) Reset() {
	pid.integral = 0.0
	pid.prevError = 0.0
}

// Update computes the PID output for error over a step of dt seconds.
// A non-positive dt returns ErrInvalidTimeDelta and leaves the state as is.
func (pid *PIDController) Update(err float64, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, ErrInvalidTimeDelta
	}

	pid.integral += err * dt
	derivative := (err - pid.prevError) / dt
	out := pid.cfg.Kp*err + pid.cfg.Ki*pid.integral + pid.cfg.Kd*derivative

	pid.prevError = err
	return out, nil
}

// PIDDiagnostics contains PID internal state for monitoring
type PIDDiagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
}

// Diagnostics returns current PID state for logging
func (pid *PIDController) Diagnostics() PIDDiagnostics {
	return PIDDiagnostics{
		Error:    pid.prevError,
		Integral: pid.integral,
		P:        pid.cfg.Kp * pid.prevError,
		I:        pid.cfg.Ki * pid.integral,
	}
}

// ClampFloat limits value to [lo, hi]
func ClampFloat(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
