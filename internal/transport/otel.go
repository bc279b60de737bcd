// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package transport

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/SuyogPrasai/edisonn-raspberrypi/internal/transport"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type linkMetrics struct {
	framesSent    metric.Int64Counter
	sendErrors    metric.Int64Counter
	linesReceived metric.Int64Counter
}

func newLinkMetrics() (*linkMetrics, error) {
	// Returns no-op instruments if no provider is configured
	m := meter()
	lm := &linkMetrics{}

	var err error
	lm.framesSent, err = m.Int64Counter(
		"edison.transport.frames_sent",
		metric.WithDescription("Command frames written to the link"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames sent counter: %w", err)
	}

	lm.sendErrors, err = m.Int64Counter(
		"edison.transport.send_errors",
		metric.WithDescription("Command frame writes that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating send errors counter: %w", err)
	}

	lm.linesReceived, err = m.Int64Counter(
		"edison.transport.lines_received",
		metric.WithDescription("Inbound lines read from the controller"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lines received counter: %w", err)
	}

	return lm, nil
}
