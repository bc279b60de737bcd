// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package vehicle holds the speed and steering state of the car and turns
// every change into a command frame for the microcontroller.
//
// Mutations happen under a single mutex and are queued, in mutation order,
// for a writer goroutine that numbers, encodes and sends them. The mutex is
// never held while a frame is written.
package vehicle

import (
	"context"
	"fmt"
	"sync"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/rs/zerolog"
)

// Sender writes encoded frames to the vehicle
type Sender interface {
	Send(edisonproto.Frame) error
}

// Command is a speed and steering pair captured at mutation time
type Command struct {
	Direction int
	Speed     int
}

// State is the single source of truth for the vehicle's speed and steering
type State struct {
	cfg    config.VehicleConfig
	start  byte
	sender Sender
	log    zerolog.Logger

	mu       sync.Mutex
	speed    int
	steering int

	outMu  sync.Mutex
	outbox []Command
	wake   chan struct{}

	// sendMu serializes drains so sequence numbers follow queue order
	sendMu    sync.Mutex
	seq       edisonproto.Sequencer
	lastFrame edisonproto.Frame
	sentAny   bool
}

// NewState creates a stopped vehicle pointing straight ahead
func NewState(cfg config.VehicleConfig, startByte byte, sender Sender, log zerolog.Logger) *State {
	return &State{
		cfg:      cfg,
		start:    startByte,
		sender:   sender,
		log:      log,
		steering: cfg.FrontAngle,
		wake:     make(chan struct{}, 1),
	}
}

// Config returns the vehicle envelope the state clamps against
func (s *State) Config() config.VehicleConfig {
	return s.cfg
}

// SetSteering clamps angle to [RightAngle, LeftAngle] and stores it
func (s *State) SetSteering(angle int) {
	s.update(func() bool {
		s.steering = clamp(angle, s.cfg.RightAngle, s.cfg.LeftAngle)
		return true
	})
}

// SetSpeed stores 0 for v <= 0, otherwise v clamped to [MinSpeed, MaxSpeed]
func (s *State) SetSpeed(v int) {
	s.update(func() bool {
		s.speed = s.clampSpeed(v)
		return true
	})
}

// TurnLeft steers fully left
func (s *State) TurnLeft() { s.SetSteering(s.cfg.LeftAngle) }

// TurnRight steers fully right
func (s *State) TurnRight() { s.SetSteering(s.cfg.RightAngle) }

// TurnFront centers the steering
func (s *State) TurnFront() { s.SetSteering(s.cfg.FrontAngle) }

// Stop sets the speed to zero
func (s *State) Stop() { s.SetSpeed(0) }

// Reset stops the vehicle and centers the steering in one update
func (s *State) Reset() {
	s.update(func() bool {
		s.speed = 0
		s.steering = s.cfg.FrontAngle
		return true
	})
}

// Accelerate raises the speed by one increment. From standstill it jumps
// to MinSpeed. The result never exceeds MaxSpeed.
func (s *State) Accelerate() int {
	var speed int
	s.update(func() bool {
		if s.speed == 0 {
			s.speed = s.cfg.MinSpeed
		} else {
			s.speed = min(s.speed+s.cfg.AccelerationIncrement, s.cfg.MaxSpeed)
		}
		speed = s.speed
		return true
	})
	return speed
}

// Decelerate lowers the speed by one increment, snapping to 0 once it
// would drop below MinSpeed. A stopped vehicle is left alone and no
// frame is sent.
func (s *State) Decelerate() int {
	var speed int
	s.update(func() bool {
		if s.speed == 0 {
			return false
		}
		s.speed -= s.cfg.DecelerationIncrement
		if s.speed < s.cfg.MinSpeed {
			s.speed = 0
		}
		speed = s.speed
		return true
	})
	return speed
}

// Snapshot returns a consistent speed and steering pair
func (s *State) Snapshot() (speed, direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed, s.steering
}

// IsMoving reports whether the speed is above zero
func (s *State) IsMoving() bool {
	speed, _ := s.Snapshot()
	return speed > 0
}

// LastFrame returns the most recently sent frame, if any
func (s *State) LastFrame() (edisonproto.Frame, bool) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.lastFrame, s.sentAny
}

// Run sends queued commands until ctx is cancelled or a send fails.
// A send failure is returned and ends the writer.
func (s *State) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
}

// Flush sends every queued command now, in queue order
func (s *State) Flush() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.outMu.Lock()
	batch := s.outbox
	s.outbox = nil
	s.outMu.Unlock()

	for i, cmd := range batch {
		seq := s.seq.Next()
		frame, err := edisonproto.Encode(int(s.start), cmd.Direction, cmd.Speed, int(seq))
		if err != nil {
			return fmt.Errorf("encode command %d: %w", seq, err)
		}
		if err := s.sender.Send(frame); err != nil {
			s.log.Error().Err(err).Uint8("seq", seq).Int("dropped", len(batch)-i-1).Msg("command send failed")
			return err
		}
		s.lastFrame = frame
		s.sentAny = true
		s.log.Debug().
			Uint8("seq", seq).
			Int("direction", cmd.Direction).
			Int("speed", cmd.Speed).
			Msg("command sent")
	}
	return nil
}

// Pending returns the number of queued, unsent commands
func (s *State) Pending() int {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return len(s.outbox)
}

// update applies fn under the state lock. When fn reports a change the new
// pair is queued before the lock is released, so queue order matches
// mutation order.
func (s *State) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	if changed {
		s.outMu.Lock()
		s.outbox = append(s.outbox, Command{Direction: s.steering, Speed: s.speed})
		s.outMu.Unlock()
	}
	s.mu.Unlock()

	if changed {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (s *State) clampSpeed(v int) int {
	if v <= 0 {
		return 0
	}
	return clamp(v, s.cfg.MinSpeed, s.cfg.MaxSpeed)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
