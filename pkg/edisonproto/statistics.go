// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import (
	"fmt"
	"time"
)

// Statistics tracks decoded frame counts, checksum failures and sequence gaps
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames    uint64
	ValidFrames    uint64
	ChecksumErrors uint64
	SequenceGaps   uint64
	MissedFrames   uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec

	lastSeq byte
	haveSeq bool
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of one decode attempt
func (s *Statistics) Update(packet *Packet, decodeErr error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		s.ChecksumErrors++
		return
	}
	if packet == nil {
		return
	}
	s.ValidFrames++

	seq := packet.frame.Sequence()
	if s.haveSeq {
		// Sequence wraps at 256, so byte arithmetic gives the forward distance
		if gap := seq - s.lastSeq; gap != 1 {
			s.SequenceGaps++
			if gap > 1 {
				s.MissedFrames += uint64(gap - 1)
			}
		}
	}
	s.lastSeq = seq
	s.haveSeq = true
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.ValidFrames) / elapsed
		s.ErrorRate = float64(s.ChecksumErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d\n", s.ChecksumErrors)
	}
	if s.SequenceGaps > 0 {
		result += fmt.Sprintf("Sequence Gaps:   %8d (%d missed)\n", s.SequenceGaps, s.MissedFrames)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
