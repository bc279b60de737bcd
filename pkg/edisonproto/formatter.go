// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable line
func FormatFrame(f Frame) string {
	status := "OK"
	if !f.Valid() {
		status = "BAD CHECKSUM"
	}
	return fmt.Sprintf("seq=%3d dir=%3d speed=%3d [%s] %s",
		f.Sequence(), f.Direction(), f.Speed(), FormatHex(f[:]), status)
}

// FormatPacket formats a decoded packet with its timestamp
func FormatPacket(p *Packet) string {
	return fmt.Sprintf("[%s] %s\n", p.timestamp.Format("15:04:05.000"), FormatFrame(p.frame))
}

// FormatHex renders bytes as space separated hex pairs
func FormatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}
