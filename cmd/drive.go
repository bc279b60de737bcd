// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/config"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/logging"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/navigation"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/pilot"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/steering"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/telemetry"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/vehicle"
	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/vision"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	driveRouteFile   string
	driveDestination string
	driveLocation    string
	driveSpeed       int
	driveRamp        bool
	driveNoVision    bool
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Run the autonomous control loop",
	Long: `Drive the vehicle autonomously.

Opens the command link, reads location fixes from the phone's location
provider, receives lane samples from the vision process over WebSocket and
runs the steering fusion engine at a fixed cadence. Each cycle sets the servo
angle; every change of speed or steering is sent as a command frame.

The route is either a GeoJSON LineString file (--route) or fetched from an
OSRM server once the first fix arrives (--dest lat,lon). Without a route the
vehicle keeps its lane only.

Losing the command link is fatal: the command exits non-zero.`,
	RunE: runDrive,
}

func init() {
	rootCmd.AddCommand(driveCmd)
	driveCmd.Flags().StringVar(&driveRouteFile, "route", "", "GeoJSON route file")
	driveCmd.Flags().StringVar(&driveDestination, "dest", "", "Destination as lat,lon (route fetched from OSRM)")
	driveCmd.Flags().StringVar(&driveLocation, "location", "", "Location source: '-' for stdin, otherwise the configured command")
	driveCmd.Flags().IntVar(&driveSpeed, "speed", 0, "Cruise speed (default: minimum speed)")
	driveCmd.Flags().BoolVar(&driveRamp, "ramp", false, "Ramp up to maximum speed instead of holding the cruise speed")
	driveCmd.Flags().BoolVar(&driveNoVision, "no-vision", false, "Do not start the lane sample server")
}

func runDrive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	log := logger.With().Str("session", session).Logger()

	link, err := OpenLink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer link.Close()

	state := vehicle.NewState(cfg.Vehicle, cfg.Serial.StartByte, link, log)
	motion := vehicle.NewMotion(state, vehicle.RealClock{}, log)

	engine, err := steering.NewEngine(cfg.Fusion)
	if err != nil {
		return err
	}

	sink := openSink(ctx, cfg.Influx, session, log)
	defer sink.Close()

	tracker := navigation.NewTracker(log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The first fatal error from any worker ends the drive
	errChan := make(chan error, 1)
	fail := func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case errChan <- err:
			default:
			}
			cancel()
		}
	}

	go func() { fail(state.Run(ctx)) }()

	go func() {
		fail(link.ReadLines(ctx, logging.LineSink(log)))
	}()

	go func() {
		var err error
		if driveLocation == "-" {
			err = tracker.Run(ctx, os.Stdin)
		} else {
			err = tracker.RunCommand(ctx, cfg.Navigation.LocationCommand)
		}
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Location provider stopped; steering on lane only")
		}
	}()

	var server *vision.Server
	if !driveNoVision {
		server = vision.NewServer(engine, log)
		go func() {
			if err := server.ListenAndServe(ctx, cfg.Vision.ListenAddr); err != nil && ctx.Err() == nil {
				fail(fmt.Errorf("lane sample server: %w", err))
			}
		}()
	}

	route, err := loadRoute(ctx, cfg.Navigation, tracker, log)
	if err != nil {
		cancel()
		if workerErr := firstError(errChan); workerErr != nil {
			return workerErr
		}
		return err
	}

	state.Reset()
	engine.Reset()
	if driveRamp {
		motion.StartAcceleration()
	} else {
		speed := driveSpeed
		if speed == 0 {
			speed = cfg.Vehicle.MinSpeed
		}
		state.SetSpeed(speed)
	}

	pc := pilot.Config{
		Engine:     engine,
		Vehicle:    state,
		Fixes:      tracker,
		Sink:       sink,
		FrontAngle: cfg.Vehicle.FrontAngle,
		Interval:   cfg.Fusion.ControlInterval,
		Log:        log,
	}
	if route != nil {
		pc.Route = route
	}
	p := pilot.New(pc)

	go func() {
		err := p.Run(ctx)
		if err == nil {
			// Destination reached
			cancel()
			return
		}
		fail(err)
	}()

	<-ctx.Done()
	runErr := firstError(errChan)
	if runErr != nil {
		log.Error().Err(runErr).Msg("Drive stopped")
	}

	motion.Halt()
	motion.Wait()
	state.Stop()
	if err := state.Flush(); err != nil && runErr == nil {
		runErr = err
	}

	if server != nil {
		received, rejected := server.Stats()
		log.Info().Uint64("received", received).Uint64("rejected", rejected).Msg("Lane samples")
	}
	log.Info().Uint64("cycles", p.Cycles()).Msg("Vehicle stopped")
	return runErr
}

func firstError(errChan <-chan error) error {
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

// openSink connects the InfluxDB recorder when enabled. An unreachable server
// is logged and recording is skipped.
func openSink(ctx context.Context, c config.InfluxConfig, session string, log zerolog.Logger) telemetry.Sink {
	if !c.Enabled {
		return telemetry.Nop{}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rec, err := telemetry.NewRecorder(pingCtx, c, session, log)
	if err != nil {
		log.Warn().Err(err).Msg("Control cycles will not be recorded")
		return telemetry.Nop{}
	}
	return rec
}

// loadRoute builds the route from --route or --dest. It returns nil when
// neither is given.
func loadRoute(ctx context.Context, nc config.NavigationConfig, tracker *navigation.Tracker, log zerolog.Logger) (*navigation.Route, error) {
	if driveRouteFile != "" {
		points, err := navigation.LoadRouteFile(driveRouteFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", driveRouteFile).Int("waypoints", len(points)).Msg("Route loaded")
		return navigation.NewRoute(points, nc.WaypointThreshold), nil
	}

	if driveDestination == "" {
		log.Info().Msg("No route given; lane keeping only")
		return nil, nil
	}

	dest, err := parsePoint(driveDestination)
	if err != nil {
		return nil, err
	}

	// The route starts at the vehicle, so wait for the first fix
	log.Info().Stringer("destination", dest).Msg("Waiting for location fix")
	fix, err := waitForFix(ctx, tracker)
	if err != nil {
		return nil, err
	}

	points, err := navigation.NewRouteClient(nc.RouteURL).Fetch(ctx, fix.Position, dest)
	if err != nil {
		return nil, err
	}
	log.Info().Stringer("from", fix.Position).Stringer("to", dest).Int("waypoints", len(points)).Msg("Route fetched")
	return navigation.NewRoute(points, nc.WaypointThreshold), nil
}

func waitForFix(ctx context.Context, tracker *navigation.Tracker) (navigation.Fix, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if fix, ok := tracker.Current(); ok {
			return fix, nil
		}
		select {
		case <-ctx.Done():
			return navigation.Fix{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// parsePoint parses "lat,lon"
func parsePoint(s string) (navigation.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return navigation.Point{}, fmt.Errorf("invalid point %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return navigation.Point{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return navigation.Point{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return navigation.Point{}, fmt.Errorf("point %q out of range", s)
	}
	return navigation.Point{Lat: lat, Lon: lon}, nil
}
