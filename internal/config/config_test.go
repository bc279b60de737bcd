// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultVehicle(), cfg.Vehicle)
	assert.Equal(t, byte(0xAA), cfg.Serial.StartByte)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 0.8, cfg.Fusion.Kp)
	assert.Equal(t, 0.01, cfg.Fusion.Ki)
	assert.Equal(t, 0.05, cfg.Fusion.Kd)
	assert.Equal(t, 30.0, cfg.Fusion.MaxSteeringAngle)
	assert.Equal(t, 5, cfg.Fusion.HistorySize)
	assert.Equal(t, 100*time.Millisecond, cfg.Fusion.ControlInterval)
	assert.Equal(t, 5.0, cfg.Navigation.WaypointThreshold)
	assert.False(t, cfg.Influx.Enabled)
	assert.Equal(t, uint32(0x100), cfg.CAN.FrameID)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MIN_SPEED", "120")
	t.Setenv("CAR_MAX_SPEED", "200")
	t.Setenv("ACCELERATION_DELAY", "0.25")
	t.Setenv("LEFT_ANGLE", "130")
	t.Setenv("PACKET_START_BYTE", "0x7E")
	t.Setenv("BAUD_RATE", "115200")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Vehicle.MinSpeed)
	assert.Equal(t, 200, cfg.Vehicle.MaxSpeed)
	assert.Equal(t, 250*time.Millisecond, cfg.Vehicle.AccelerationDelay)
	assert.Equal(t, 130, cfg.Vehicle.LeftAngle)
	assert.Equal(t, byte(0x7E), cfg.Serial.StartByte)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edison.yaml")
	content := `
vehicle:
  maxSpeed: 180
  frontAngle: 95
serial:
  port: /dev/ttyUSB1
  startByte: "126"
fusion:
  controlInterval: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.Vehicle.MaxSpeed)
	assert.Equal(t, 95, cfg.Vehicle.FrontAngle)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, byte(126), cfg.Serial.StartByte)
	assert.Equal(t, 50*time.Millisecond, cfg.Fusion.ControlInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), "/nonexistent/edison.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		env  map[string]string
	}{
		{"min above max", "vehicle.minSpeed", map[string]string{"MIN_SPEED": "210", "MAX_SPEED": "200"}},
		{"max above byte", "vehicle.maxSpeed", map[string]string{"MAX_SPEED": "300"}},
		{"zero min speed", "vehicle.minSpeed", map[string]string{"MIN_SPEED": "0"}},
		{"zero acceleration delay", "vehicle.accelerationDelay", map[string]string{"ACCELERATION_DELAY": "0"}},
		{"front outside steering range", "vehicle.frontAngle", map[string]string{"FRONT_ANGLE": "130"}},
		{"bad start byte", "serial.startByte", map[string]string{"PACKET_START_BYTE": "0x1FF"}},
		{"non numeric start byte", "serial.startByte", map[string]string{"PACKET_START_BYTE": "start"}},
		{"zero waypoint threshold", "navigation.waypointThreshold", map[string]string{"WAYPOINT_THRESHOLD": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(New(), "")
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestParseStartByte(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{"0xAA", 0xAA, false},
		{"170", 170, false},
		{" 0x7e ", 0x7E, false},
		{"0", 0, false},
		{"256", 0, true},
		{"", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStartByte(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
