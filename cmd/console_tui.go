// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Edison contributors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/internal/vehicle"
	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	consoleRefresh     = 100 * time.Millisecond
	consoleMaxLogLines = 500
	consolePanelHeight = 9 // header + state panel rows
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// driver is the vehicle surface the console controls
type driver interface {
	TurnLeft()
	TurnRight()
	TurnFront()
	Stop()
	Reset()
	Snapshot() (speed, direction int)
	LastFrame() (edisonproto.Frame, bool)
	Pending() int
}

// ramper is the motion surface the console controls
type ramper interface {
	StartAcceleration()
	StartDeceleration()
	Halt()
	Active() vehicle.Ramp
}

type logEntry struct {
	timestamp  time.Time
	message    string
	controller bool
}

// consoleModel is the Bubble Tea model for the manual driving console
type consoleModel struct {
	vehicle  driver
	motion   ramper
	connInfo string
	front    int

	// Snapshot refreshed every tick
	speed     int
	direction int
	ramp      vehicle.Ramp
	lastFrame edisonproto.Frame
	hasFrame  bool
	pending   int

	events          viewport.Model
	log             []logEntry
	controllerLines int

	width    int
	height   int
	quitting bool
	fatal    error
}

type consoleTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(v driver, motion ramper, connInfo string, front int) consoleModel {
	m := consoleModel{
		vehicle:  v,
		motion:   motion,
		connInfo: connInfo,
		front:    front,
		events:   viewport.New(76, 10),
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return consoleTickCmd()
}

func consoleTickCmd() tea.Cmd {
	return tea.Tick(consoleRefresh, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeEvents()

	case consoleTickMsg:
		m.refresh()
		return m, consoleTickCmd()

	case controllerLineMsg:
		m.controllerLines++
		m.addLogEntry(string(msg), true)

	case logLineMsg:
		m.addLogEntry(string(msg), false)

	case linkFailedMsg:
		m.fatal = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "w":
		m.motion.StartAcceleration()
		m.addLogEntry("Accelerating", false)

	case "down", "s":
		m.motion.StartDeceleration()
		m.addLogEntry("Decelerating", false)

	case "enter":
		m.motion.Halt()
		m.addLogEntry("Holding speed", false)

	case "left", "a":
		m.vehicle.TurnLeft()

	case "right", "d":
		m.vehicle.TurnRight()

	case "f":
		m.vehicle.TurnFront()

	case " ":
		m.motion.Halt()
		m.vehicle.Stop()
		m.addLogEntry("Stopped", false)

	case "r":
		m.motion.Halt()
		m.vehicle.Reset()
		m.addLogEntry("Reset", false)

	default:
		// Scrolling keys
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

func (m consoleModel) View() string {
	if m.quitting {
		if m.fatal != nil {
			return fmt.Sprintf("Link failed: %v\n", m.fatal)
		}
		return "Stopping vehicle...\n"
	}

	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	s.WriteString(titleStyle.Render("EDISON CONSOLE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit arrows=drive space=stop", m.connInfo)))
	s.WriteString("\n\n")

	// State panel
	var panel strings.Builder
	panel.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		labelStyle.Render("Speed:"), valueStyle.Render(fmt.Sprintf("%3d", m.speed)),
		labelStyle.Render("Steering:"), valueStyle.Render(fmt.Sprintf("%3d", m.direction)),
		labelStyle.Render("Heading:"), valueStyle.Render(m.steeringLabel())))

	rampText := m.ramp.String()
	if m.ramp != vehicle.RampNone {
		rampText = warningStyle.Render(rampText)
	}
	panel.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		labelStyle.Render("Ramp:"), rampText,
		labelStyle.Render("Queued:"), valueStyle.Render(fmt.Sprintf("%d", m.pending)),
		labelStyle.Render("Controller lines:"), valueStyle.Render(fmt.Sprintf("%d", m.controllerLines))))

	panel.WriteString(labelStyle.Render("Last frame: "))
	if m.hasFrame {
		panel.WriteString(edisonproto.FormatFrame(m.lastFrame))
	} else {
		panel.WriteString(headerStyle.Render("(none sent)"))
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(panel.String()))
	s.WriteString("\n")

	// Event log
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.events.View()))

	return s.String()
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *consoleModel) refresh() {
	m.speed, m.direction = m.vehicle.Snapshot()
	m.lastFrame, m.hasFrame = m.vehicle.LastFrame()
	m.pending = m.vehicle.Pending()
	m.ramp = m.motion.Active()
}

func (m consoleModel) steeringLabel() string {
	switch {
	case m.direction > m.front:
		return "left"
	case m.direction < m.front:
		return "right"
	default:
		return "straight"
	}
}

func (m *consoleModel) addLogEntry(message string, controller bool) {
	m.log = append(m.log, logEntry{
		timestamp:  time.Now(),
		message:    message,
		controller: controller,
	})
	if len(m.log) > consoleMaxLogLines {
		m.log = m.log[len(m.log)-consoleMaxLogLines:]
	}

	atBottom := m.events.AtBottom()
	m.events.SetContent(m.renderLog())
	if atBottom {
		m.events.GotoBottom()
	}
}

func (m consoleModel) renderLog() string {
	if len(m.log) == 0 {
		return "(no events yet)"
	}
	var s strings.Builder
	for i, entry := range m.log {
		source := "edison"
		if entry.controller {
			source = "ctrl  "
		}
		s.WriteString(fmt.Sprintf("%s %s %s", entry.timestamp.Format("15:04:05.000"), source, entry.message))
		if i < len(m.log)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (m *consoleModel) resizeEvents() {
	height := m.height - consolePanelHeight - 4
	if height < 3 {
		height = 3
	}
	width := m.width - 8
	if width < 20 {
		width = 20
	}
	m.events.Width = width
	m.events.Height = height
	m.events.SetContent(m.renderLog())
	m.events.GotoBottom()
}
