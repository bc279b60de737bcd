// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors
//
// Edison - vehicle control core
//
// Drives a remotely controlled vehicle over a framed serial protocol and
// fuses waypoint and lane guidance into one steering command.

package main

import (
	"os"

	"github.com/SuyogPrasai/edisonn-raspberrypi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
