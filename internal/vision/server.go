// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package vision receives lane observations from the perception process.
//
// The perception side connects to a WebSocket endpoint and streams binary
// CBOR lane samples; each valid sample is pushed into the steering engine.
package vision

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// LaneSink accepts lane observations
type LaneSink interface {
	UpdateLane(offset, curvature float64) error
}

// Server is the lane sample WebSocket endpoint
type Server struct {
	sink     LaneSink
	log      zerolog.Logger
	upgrader websocket.Upgrader

	received atomic.Uint64
	rejected atomic.Uint64
}

// NewServer creates a server that forwards samples to sink
func NewServer(sink LaneSink, log zerolog.Logger) *Server {
	return &Server{
		sink: sink,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The perception process runs on the same host or LAN
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stats returns the number of accepted and rejected samples
func (s *Server) Stats() (received, rejected uint64) {
	return s.received.Load(), s.rejected.Load()
}

// ServeHTTP upgrades the request and reads samples until the peer leaves
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("lane stream upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("remote", r.RemoteAddr).Logger()
	log.Info().Msg("lane stream connected")

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info().Msg("lane stream closed")
			} else {
				log.Warn().Err(err).Msg("lane stream read failed")
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		sample, err := DecodeLaneSample(data)
		if err == nil {
			err = s.sink.UpdateLane(sample.Offset, sample.Curvature)
		}
		if err != nil {
			s.rejected.Add(1)
			log.Debug().Err(err).Msg("lane sample rejected")
			continue
		}
		s.received.Add(1)
	}
}

// ListenAndServe serves the /lane endpoint on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/lane", s)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("lane bridge listening")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
