// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

// Frame layout
const (
	FrameSize = 5

	OffsetStart     = 0
	OffsetDirection = 1
	OffsetSpeed     = 2
	OffsetSequence  = 3
	OffsetChecksum  = 4
)

// DefaultStartByte is used when no start byte is configured
const DefaultStartByte byte = 0xAA
