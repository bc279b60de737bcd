// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import "sync"

// Sequencer hands out frame sequence numbers, wrapping modulo 256.
// The counter is advanced before use, so the first value is 1.
type Sequencer struct {
	mu   sync.Mutex
	last byte
}

// Next advances the counter and returns the new sequence number
func (s *Sequencer) Next() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Last returns the most recently issued sequence number (0 before the first)
func (s *Sequencer) Last() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
