// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package transport owns the link to the vehicle microcontroller.
//
// A Link writes 5-byte command frames and, concurrently, reads the
// newline-delimited text the controller prints back. Both directions treat
// failures as fatal: a failed write or read is returned to the caller, and
// the link is never silently reopened.
package transport

import (
	"bufio"
	"context"
	"sync"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Link is a frame-oriented view over a Connection
type Link struct {
	conn    Connection
	name    string
	log     zerolog.Logger
	metrics *linkMetrics
	attrs   metric.MeasurementOption

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewLink wraps an open connection. name identifies the link in logs and metrics.
func NewLink(conn Connection, name string, log zerolog.Logger) (*Link, error) {
	lm, err := newLinkMetrics()
	if err != nil {
		return nil, err
	}
	return &Link{
		conn:    conn,
		name:    name,
		log:     log.With().Str("link", name).Logger(),
		metrics: lm,
		attrs:   metric.WithAttributes(attribute.String("link", name)),
	}, nil
}

// Name returns the link description given to NewLink
func (l *Link) Name() string {
	return l.name
}

// Send writes one frame. Writes are serialized; concurrent callers never
// interleave bytes of different frames.
func (l *Link) Send(frame edisonproto.Frame) error {
	if l.isClosed() {
		l.metrics.sendErrors.Add(context.Background(), 1, l.attrs)
		return &TransportError{Op: "send", Err: ErrClosed}
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	n, err := l.conn.Write(frame[:])
	if err == nil && n != len(frame) {
		err = ErrShortWrite
	}
	if err != nil {
		l.metrics.sendErrors.Add(context.Background(), 1, l.attrs)
		return &TransportError{Op: "send", Err: err}
	}

	l.metrics.framesSent.Add(context.Background(), 1, l.attrs)
	l.log.Trace().
		Uint8("seq", frame.Sequence()).
		Uint8("direction", frame.Direction()).
		Uint8("speed", frame.Speed()).
		Msg("frame sent")
	return nil
}

// ReadLines reads newline-delimited lines from the controller and hands each
// one to sink until ctx is cancelled or the read fails. A read failure is
// returned as a *TransportError.
func (l *Link) ReadLines(ctx context.Context, sink func(line string)) error {
	scan := bufio.NewScanner(l.conn)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is observed
	// promptly; closing the link unblocks it.
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
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			if l.isClosed() {
				return nil
			}
			return &TransportError{Op: "read", Err: err}

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					if !l.isClosed() {
						return &TransportError{Op: "read", Err: err}
					}
				default:
				}
				return nil
			}
			l.metrics.linesReceived.Add(ctx, 1, l.attrs)
			sink(line)
		}
	}
}

// Close closes the underlying connection. Further sends fail with ErrClosed.
func (l *Link) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.conn.Close()
}

func (l *Link) isClosed() bool {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	return l.closed
}
