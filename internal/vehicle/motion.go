// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vehicle

import (
	"sync"

	"github.com/rs/zerolog"
)

// Ramp identifies which gradual speed change is running
type Ramp int

const (
	RampNone Ramp = iota
	RampAccelerating
	RampDecelerating
)

func (r Ramp) String() string {
	switch r {
	case RampAccelerating:
		return "accelerating"
	case RampDecelerating:
		return "decelerating"
	default:
		return "none"
	}
}

// Motion runs gradual acceleration and deceleration ramps against a State.
// At most one ramp is active; starting one cancels the other, and starting
// the one already running does nothing. Cancellation takes effect before
// the ramp's next step.
type Motion struct {
	state *State
	clock Clock
	log   zerolog.Logger

	mu     sync.Mutex
	active Ramp
	gen    uint64
	wg     sync.WaitGroup
}

// NewMotion creates a motion controller for state
func NewMotion(state *State, clock Clock, log zerolog.Logger) *Motion {
	if clock == nil {
		clock = RealClock{}
	}
	return &Motion{state: state, clock: clock, log: log}
}

// StartAcceleration ramps the speed up to MaxSpeed
func (m *Motion) StartAcceleration() {
	m.start(RampAccelerating)
}

// StartDeceleration ramps the speed down to zero
func (m *Motion) StartDeceleration() {
	m.start(RampDecelerating)
}

// StopAcceleration cancels a running acceleration ramp
func (m *Motion) StopAcceleration() {
	m.cancel(RampAccelerating)
}

// StopDeceleration cancels a running deceleration ramp
func (m *Motion) StopDeceleration() {
	m.cancel(RampDecelerating)
}

// Halt cancels whichever ramp is running
func (m *Motion) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = RampNone
	m.gen++
}

// Active returns the running ramp
func (m *Motion) Active() Ramp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Wait blocks until every ramp goroutine has returned
func (m *Motion) Wait() {
	m.wg.Wait()
}

func (m *Motion) start(r Ramp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == r {
		return
	}
	m.active = r
	m.gen++

	m.wg.Add(1)
	go m.loop(r, m.gen)
}

func (m *Motion) cancel(r Ramp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != r {
		return
	}
	m.active = RampNone
	m.gen++
}

func (m *Motion) loop(r Ramp, gen uint64) {
	defer m.wg.Done()

	cfg := m.state.Config()
	delay := cfg.AccelerationDelay
	if r == RampDecelerating {
		delay = cfg.DecelerationDelay
	}

	m.log.Debug().Stringer("ramp", r).Msg("ramp started")
	for {
		if !m.step(r, gen) {
			m.log.Debug().Stringer("ramp", r).Msg("ramp finished")
			return
		}
		<-m.clock.After(delay)
	}
}

// step applies one increment if the ramp is still current and its limit
// has not been reached. The check and the increment happen under the
// controller lock so a cancelled ramp never steps.
func (m *Motion) step(r Ramp, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}

	speed, _ := m.state.Snapshot()
	cfg := m.state.Config()

	switch r {
	case RampAccelerating:
		if speed >= cfg.MaxSpeed {
			m.active = RampNone
			return false
		}
		m.state.Accelerate()
	case RampDecelerating:
		if speed == 0 {
			m.active = RampNone
			return false
		}
		m.state.Decelerate()
	}
	return true
}
