// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/vehicle"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for driving the vehicle by hand",
	Long: `Drive the vehicle from an interactive terminal UI.

Keys:
  up / w      start accelerating (ramp to maximum speed)
  down / s    start decelerating (ramp to a stop)
  enter       hold the current speed (cancel ramps)
  left / a    steer left
  right / d   steer right
  f           steer straight
  space       stop immediately
  r           reset (stop and steer straight)
  q           quit (the vehicle is stopped first)

The panel shows the current speed, steering angle, active ramp and the last
command frame sent. Lines from the motor controller appear in the event log.

Losing the command link is fatal.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// Messages from background goroutines into the TUI
type controllerLineMsg string

type logLineMsg string

type linkFailedMsg struct {
	err error
}

// programWriter forwards log output to the TUI, one message per line.
// Writes never block; lines are dropped while the buffer is full.
type programWriter struct {
	lines chan string
}

func newProgramWriter() *programWriter {
	return &programWriter{lines: make(chan string, 256)}
}

func (w *programWriter) Write(b []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n")) {
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(b), nil
}

// forward delivers buffered lines to p until ctx is done
func (w *programWriter) forward(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-w.lines:
			p.Send(logLineMsg(line))
		}
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := newProgramWriter()
	log := zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(logger.GetLevel()).
		With().Timestamp().Logger()

	link, err := OpenLink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer link.Close()

	state := vehicle.NewState(cfg.Vehicle, cfg.Serial.StartByte, link, log)
	motion := vehicle.NewMotion(state, vehicle.RealClock{}, log)

	m := initialConsoleModel(state, motion, link.Name(), cfg.Vehicle.FrontAngle)
	p := tea.NewProgram(m, tea.WithAltScreen())
	go out.forward(ctx, p)

	go func() {
		if err := state.Run(ctx); err != nil && ctx.Err() == nil {
			p.Send(linkFailedMsg{err: err})
		}
	}()

	go func() {
		err := link.ReadLines(ctx, func(line string) {
			p.Send(controllerLineMsg(line))
		})
		if err != nil && ctx.Err() == nil {
			p.Send(linkFailedMsg{err: err})
		}
	}()

	final, runErr := p.Run()

	// Leave the vehicle stopped whatever happened in the UI
	motion.Halt()
	motion.Wait()
	state.Stop()
	cancel()
	flushErr := state.Flush()

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	if fm, ok := final.(consoleModel); ok && fm.fatal != nil {
		return fm.fatal
	}
	return flushErr
}
