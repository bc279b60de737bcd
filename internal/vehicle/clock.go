// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vehicle

import "time"

// Clock provides the ramp delay so ramps can be stepped in tests
type Clock interface {
	// After waits for the duration to elapse and then sends the current time.
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// After calls time.After.
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
