// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package navigation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Location lines look like:
//
//	Location: 27.700769, 85.300140 | Direction: 45° (North-East)
var locationPattern = regexp.MustCompile(`Location:\s*([\d\.\-]+),\s*([\d\.\-]+)\s*\|\s*Direction:\s*(\d+)[^\d]*\(([^)]+)\)`)

// Fix is one position and heading report from the phone
type Fix struct {
	Position Point
	Heading  int    // compass degrees
	Label    string // e.g. "North-East"
	At       time.Time
}

// ParseLocationLine extracts a fix from a location line anywhere in line
func ParseLocationLine(line string) (Fix, bool) {
	m := locationPattern.FindStringSubmatch(line)
	if m == nil {
		return Fix{}, false
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Fix{}, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Fix{}, false
	}
	heading, err := strconv.Atoi(m[3])
	if err != nil {
		return Fix{}, false
	}

	return Fix{
		Position: Point{Lat: lat, Lon: lon},
		Heading:  heading,
		Label:    strings.TrimSpace(m[4]),
	}, true
}

// Tracker keeps the latest fix. It reports no fix until the first
// location line has been seen.
type Tracker struct {
	log zerolog.Logger

	mu  sync.RWMutex
	fix Fix
	has bool
}

// NewTracker creates a tracker without a fix
func NewTracker(log zerolog.Logger) *Tracker {
	return &Tracker{log: log}
}

// Update parses line and stores the fix if it matches
func (t *Tracker) Update(line string) bool {
	fix, ok := ParseLocationLine(line)
	if !ok {
		return false
	}
	fix.At = time.Now()

	t.mu.Lock()
	first := !t.has
	t.fix = fix
	t.has = true
	t.mu.Unlock()

	if first {
		t.log.Info().Stringer("position", fix.Position).Int("heading", fix.Heading).Msg("first location fix")
	}
	return true
}

// Current returns the latest fix and whether one exists
func (t *Tracker) Current() (Fix, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fix, t.has
}

// Run feeds every line of r into the tracker until r ends or ctx is done
func (t *Tracker) Run(ctx context.Context, r io.Reader) error {
	scan := bufio.NewScanner(r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErrChan:
			return fmt.Errorf("reading location stream: %w", err)
		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return fmt.Errorf("reading location stream: %w", err)
				default:
				}
				return nil
			}
			t.Update(line)
		}
	}
}

// RunCommand starts command (for example "adb logcat DeviceLocation:D *:S")
// and tracks its standard output until it exits or ctx is done.
func (t *Tracker) RunCommand(ctx context.Context, command string) error {
	args := strings.Fields(command)
	if len(args) == 0 {
		return fmt.Errorf("empty location command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("location command: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting location command %q: %w", args[0], err)
	}
	t.log.Info().Str("command", command).Msg("location provider started")

	runErr := t.Run(ctx, stdout)
	waitErr := cmd.Wait()
	if runErr != nil {
		return runErr
	}
	if waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("location command exited: %w", waitErr)
	}
	return nil
}
