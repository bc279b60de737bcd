// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vehicle

import (
	"sync"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/rs/zerolog"
)

// recordingSender captures every frame it is given
type recordingSender struct {
	mu     sync.Mutex
	frames []edisonproto.Frame
	err    error
}

func (r *recordingSender) Send(f edisonproto.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingSender) sent() []edisonproto.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]edisonproto.Frame(nil), r.frames...)
}

func (r *recordingSender) speeds() []int {
	var out []int
	for _, f := range r.sent() {
		out = append(out, int(f.Speed()))
	}
	return out
}

// manualClock hands out channels that only fire when the test says so
type manualClock struct {
	mu       sync.Mutex
	waiters  []chan time.Time
	released bool
}

func (c *manualClock) After(time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if c.released {
		ch <- time.Time{}
		return ch
	}
	c.waiters = append(c.waiters, ch)
	return ch
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// fire releases the oldest pending waiter
func (c *manualClock) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return
	}
	c.waiters[0] <- time.Time{}
	c.waiters = c.waiters[1:]
}

// release fires every pending waiter and makes future waits return at once
func (c *manualClock) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	for _, ch := range c.waiters {
		ch <- time.Time{}
	}
	c.waiters = nil
}

func testConfig() config.VehicleConfig {
	return config.VehicleConfig{
		MinSpeed:              100,
		MaxSpeed:              255,
		AccelerationDelay:     10 * time.Millisecond,
		DecelerationDelay:     10 * time.Millisecond,
		AccelerationIncrement: 5,
		DecelerationIncrement: 5,
		LeftAngle:             120,
		RightAngle:            60,
		FrontAngle:            90,
	}
}

func newTestState(cfg config.VehicleConfig) (*State, *recordingSender) {
	sender := &recordingSender{}
	return NewState(cfg, 0xAA, sender, zerolog.Nop()), sender
}
