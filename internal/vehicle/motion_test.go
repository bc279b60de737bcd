// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vehicle

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForWaiter(t *testing.T, c *manualClock) {
	t.Helper()
	require.Eventually(t, func() bool { return c.pending() > 0 }, time.Second, time.Millisecond)
}

func currentSpeed(s *State) int {
	speed, _ := s.Snapshot()
	return speed
}

func TestMotion_AccelerationRampReachesMax(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSpeed = 120
	s, sender := newTestState(cfg)
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartAcceleration()
	assert.Equal(t, RampAccelerating, m.Active())

	for want := 100; want <= 120; want += 5 {
		waitForWaiter(t, clock)
		assert.Equal(t, want, currentSpeed(s))
		clock.fire()
	}
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	assert.Equal(t, 120, currentSpeed(s))
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{100, 105, 110, 115, 120}, sender.speeds())
}

func TestMotion_DecelerationRampStops(t *testing.T) {
	s, sender := newTestState(testConfig())
	s.SetSpeed(112)
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartDeceleration()
	waitForWaiter(t, clock)
	assert.Equal(t, 107, currentSpeed(s))
	clock.fire()
	waitForWaiter(t, clock)
	assert.Equal(t, 102, currentSpeed(s))
	clock.fire()
	waitForWaiter(t, clock)
	assert.Equal(t, 0, currentSpeed(s), "below min snaps to zero")
	clock.fire()
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{112, 107, 102, 0}, sender.speeds())
}

func TestMotion_StartIsIdempotent(t *testing.T) {
	s, _ := newTestState(testConfig())
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartAcceleration()
	waitForWaiter(t, clock)

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	m.StartAcceleration()

	m.mu.Lock()
	assert.Equal(t, gen, m.gen, "second start must not spawn a new ramp")
	m.mu.Unlock()
	assert.Equal(t, 1, clock.pending())
	assert.Equal(t, 100, currentSpeed(s))

	m.Halt()
	clock.release()
	m.Wait()
}

func TestMotion_DecelerationCancelsAcceleration(t *testing.T) {
	s, sender := newTestState(testConfig())
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartAcceleration()
	waitForWaiter(t, clock)
	assert.Equal(t, 100, currentSpeed(s))

	m.StartDeceleration()
	assert.Equal(t, RampDecelerating, m.Active())
	require.Eventually(t, func() bool { return currentSpeed(s) == 0 }, time.Second, time.Millisecond)

	clock.release()
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{100, 0}, sender.speeds(), "the cancelled ramp never steps again")
}

func TestMotion_AccelerationCancelsDeceleration(t *testing.T) {
	s, sender := newTestState(testConfig())
	s.SetSpeed(200)
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartDeceleration()
	waitForWaiter(t, clock)
	assert.Equal(t, 195, currentSpeed(s))

	m.StartAcceleration()
	assert.Equal(t, RampAccelerating, m.Active())
	require.Eventually(t, func() bool { return clock.pending() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 200, currentSpeed(s))

	// The deceleration ramp wakes up stale and must not step
	clock.fire()
	m.Halt()
	clock.release()
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	assert.Equal(t, 200, currentSpeed(s))
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{200, 195, 200}, sender.speeds())
}

func TestMotion_AccelerationRampToFullSpeed(t *testing.T) {
	s, sender := newTestState(testConfig())
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartAcceleration()
	for want := 100; want <= 255; want += 5 {
		waitForWaiter(t, clock)
		require.Equal(t, want, currentSpeed(s))
		clock.fire()
	}
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	require.NoError(t, s.Flush())
	speeds := sender.speeds()
	require.Len(t, speeds, 32)
	assert.Equal(t, 100, speeds[0])
	assert.Equal(t, 105, speeds[1])
	assert.Equal(t, 255, speeds[len(speeds)-1])
}

func TestMotion_StopCancelsOnlyMatchingRamp(t *testing.T) {
	s, _ := newTestState(testConfig())
	clock := &manualClock{}
	m := NewMotion(s, clock, zerolog.Nop())

	m.StartAcceleration()
	waitForWaiter(t, clock)

	m.StopDeceleration()
	assert.Equal(t, RampAccelerating, m.Active())

	m.StopAcceleration()
	assert.Equal(t, RampNone, m.Active())

	clock.release()
	m.Wait()
	assert.Equal(t, 100, currentSpeed(s), "no step after cancellation")
}

func TestMotion_AccelerationAtMaxEndsImmediately(t *testing.T) {
	s, sender := newTestState(testConfig())
	s.SetSpeed(255)
	m := NewMotion(s, &manualClock{}, zerolog.Nop())

	m.StartAcceleration()
	m.Wait()

	assert.Equal(t, RampNone, m.Active())
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{255}, sender.speeds())
}

func TestRampString(t *testing.T) {
	assert.Equal(t, "none", RampNone.String())
	assert.Equal(t, "accelerating", RampAccelerating.String())
	assert.Equal(t, "decelerating", RampDecelerating.String())
}
