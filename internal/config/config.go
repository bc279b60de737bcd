// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package config loads the vehicle and runtime settings.
//
// Values come from built-in defaults, an optional config file, environment
// variables and command-line flags, in increasing order of precedence. The
// environment names match the ones used by the vehicle firmware tooling
// (MIN_SPEED, LEFT_ANGLE, PACKET_START_BYTE, ...). Configuration is read once
// at startup; there is no runtime reload.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SuyogPrasai/edisonn-raspberrypi/pkg/edisonproto"
	"github.com/spf13/viper"
)

// ConfigurationError reports a missing or invalid setting
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// VehicleConfig holds the speed and steering envelope of the vehicle
type VehicleConfig struct {
	MinSpeed              int
	MaxSpeed              int
	AccelerationDelay     time.Duration
	DecelerationDelay     time.Duration
	AccelerationIncrement int
	DecelerationIncrement int
	LeftAngle             int
	RightAngle            int
	FrontAngle            int
}

// SerialConfig holds the command link settings
type SerialConfig struct {
	Port      string
	BaudRate  int
	StartByte byte
}

// FusionConfig holds steering fusion gains and weights
type FusionConfig struct {
	Kp               float64
	Ki               float64
	Kd               float64
	MaxSteeringAngle float64
	WaypointWeight   float64
	LaneWeight       float64
	CurvatureGain    float64
	HistorySize      int
	ControlInterval  time.Duration
}

// NavigationConfig holds route following settings
type NavigationConfig struct {
	WaypointThreshold float64 // meters
	RouteURL          string
	LocationCommand   string
}

// VisionConfig holds the lane sample bridge settings
type VisionConfig struct {
	ListenAddr string
}

// InfluxConfig holds the optional control-cycle recorder settings
type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// CANConfig holds the SocketCAN link settings
type CANConfig struct {
	Interface string
	FrameID   uint32
}

// Config is the complete runtime configuration
type Config struct {
	LogLevel   string
	Vehicle    VehicleConfig
	Serial     SerialConfig
	Fusion     FusionConfig
	Navigation NavigationConfig
	Vision     VisionConfig
	Influx     InfluxConfig
	CAN        CANConfig
}

// envBindings maps config keys to the environment variables that may set them
var envBindings = map[string][]string{
	"vehicle.minSpeed":              {"MIN_SPEED", "CAR_MIN_SPEED"},
	"vehicle.maxSpeed":              {"MAX_SPEED", "CAR_MAX_SPEED"},
	"vehicle.accelerationDelay":     {"ACCELERATION_DELAY"},
	"vehicle.decelerationDelay":     {"DECELERATION_DELAY"},
	"vehicle.accelerationIncrement": {"ACCELERATION_INCREMENT"},
	"vehicle.decelerationIncrement": {"DECELERATION_INCREMENT"},
	"vehicle.leftAngle":             {"LEFT_ANGLE"},
	"vehicle.rightAngle":            {"RIGHT_ANGLE"},
	"vehicle.frontAngle":            {"FRONT_ANGLE"},
	"serial.port":                   {"SERIAL_PORT"},
	"serial.baudRate":               {"BAUD_RATE"},
	"serial.startByte":              {"PACKET_START_BYTE"},
	"navigation.waypointThreshold":  {"WAYPOINT_THRESHOLD"},
	"fusion.maxSteeringAngle":       {"MAX_STEERING_ANGLE"},
	"influx.token":                  {"INFLUX_TOKEN"},
	"logLevel":                      {"LOG_LEVEL"},
}

// New returns a viper instance with defaults and environment bindings set
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("logLevel", "info")

	// Delays are in seconds
	dv := DefaultVehicle()
	v.SetDefault("vehicle.minSpeed", dv.MinSpeed)
	v.SetDefault("vehicle.maxSpeed", dv.MaxSpeed)
	v.SetDefault("vehicle.accelerationDelay", dv.AccelerationDelay.Seconds())
	v.SetDefault("vehicle.decelerationDelay", dv.DecelerationDelay.Seconds())
	v.SetDefault("vehicle.accelerationIncrement", dv.AccelerationIncrement)
	v.SetDefault("vehicle.decelerationIncrement", dv.DecelerationIncrement)
	v.SetDefault("vehicle.leftAngle", dv.LeftAngle)
	v.SetDefault("vehicle.rightAngle", dv.RightAngle)
	v.SetDefault("vehicle.frontAngle", dv.FrontAngle)

	v.SetDefault("serial.port", "/dev/ttyACM0")
	v.SetDefault("serial.baudRate", 9600)
	v.SetDefault("serial.startByte", fmt.Sprintf("0x%02X", edisonproto.DefaultStartByte))

	v.SetDefault("fusion.kp", 0.8)
	v.SetDefault("fusion.ki", 0.01)
	v.SetDefault("fusion.kd", 0.05)
	v.SetDefault("fusion.maxSteeringAngle", 30.0)
	v.SetDefault("fusion.waypointWeight", 0.6)
	v.SetDefault("fusion.laneWeight", 0.4)
	v.SetDefault("fusion.curvatureGain", 0.12)
	v.SetDefault("fusion.historySize", 5)
	v.SetDefault("fusion.controlInterval", 0.1)

	v.SetDefault("navigation.waypointThreshold", 5.0)
	v.SetDefault("navigation.routeUrl", "https://router.project-osrm.org")
	v.SetDefault("navigation.locationCommand", "adb logcat DeviceLocation:D *:S")

	v.SetDefault("vision.listenAddr", ":8765")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "edison")
	v.SetDefault("influx.bucket", "control")

	v.SetDefault("can.interface", "can0")
	v.SetDefault("can.frameId", 0x100)

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		// BindEnv only fails when called without a key
		_ = v.BindEnv(args...)
	}

	return v
}

// Load reads the optional config file into v and builds a validated Config.
// An empty path skips the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	startByte, err := ParseStartByte(v.GetString("serial.startByte"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel: v.GetString("logLevel"),
		Vehicle: VehicleConfig{
			MinSpeed:              v.GetInt("vehicle.minSpeed"),
			MaxSpeed:              v.GetInt("vehicle.maxSpeed"),
			AccelerationDelay:     seconds(v.GetFloat64("vehicle.accelerationDelay")),
			DecelerationDelay:     seconds(v.GetFloat64("vehicle.decelerationDelay")),
			AccelerationIncrement: v.GetInt("vehicle.accelerationIncrement"),
			DecelerationIncrement: v.GetInt("vehicle.decelerationIncrement"),
			LeftAngle:             v.GetInt("vehicle.leftAngle"),
			RightAngle:            v.GetInt("vehicle.rightAngle"),
			FrontAngle:            v.GetInt("vehicle.frontAngle"),
		},
		Serial: SerialConfig{
			Port:      v.GetString("serial.port"),
			BaudRate:  v.GetInt("serial.baudRate"),
			StartByte: startByte,
		},
		Fusion: FusionConfig{
			Kp:               v.GetFloat64("fusion.kp"),
			Ki:               v.GetFloat64("fusion.ki"),
			Kd:               v.GetFloat64("fusion.kd"),
			MaxSteeringAngle: v.GetFloat64("fusion.maxSteeringAngle"),
			WaypointWeight:   v.GetFloat64("fusion.waypointWeight"),
			LaneWeight:       v.GetFloat64("fusion.laneWeight"),
			CurvatureGain:    v.GetFloat64("fusion.curvatureGain"),
			HistorySize:      v.GetInt("fusion.historySize"),
			ControlInterval:  seconds(v.GetFloat64("fusion.controlInterval")),
		},
		Navigation: NavigationConfig{
			WaypointThreshold: v.GetFloat64("navigation.waypointThreshold"),
			RouteURL:          v.GetString("navigation.routeUrl"),
			LocationCommand:   v.GetString("navigation.locationCommand"),
		},
		Vision: VisionConfig{
			ListenAddr: v.GetString("vision.listenAddr"),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
		CAN: CANConfig{
			Interface: v.GetString("can.interface"),
			FrameID:   v.GetUint32("can.frameId"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseStartByte accepts a decimal ("170") or hex ("0xAA") byte value
func ParseStartByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ConfigurationError{Key: "serial.startByte", Reason: "not set"}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, &ConfigurationError{Key: "serial.startByte", Reason: fmt.Sprintf("%q is not a byte value", s)}
	}
	return byte(n), nil
}

// Validate checks the cross-field invariants of the configuration
func (c *Config) Validate() error {
	if err := c.Vehicle.Validate(); err != nil {
		return err
	}

	f := c.Fusion
	switch {
	case f.MaxSteeringAngle <= 0:
		return &ConfigurationError{Key: "fusion.maxSteeringAngle", Reason: "must be positive"}
	case f.WaypointWeight < 0 || f.LaneWeight < 0:
		return &ConfigurationError{Key: "fusion.waypointWeight", Reason: "weights must not be negative"}
	case f.HistorySize < 1:
		return &ConfigurationError{Key: "fusion.historySize", Reason: "must be at least 1"}
	case f.ControlInterval <= 0:
		return &ConfigurationError{Key: "fusion.controlInterval", Reason: "must be positive"}
	}

	if c.Serial.BaudRate <= 0 {
		return &ConfigurationError{Key: "serial.baudRate", Reason: "must be positive"}
	}
	if c.Navigation.WaypointThreshold <= 0 {
		return &ConfigurationError{Key: "navigation.waypointThreshold", Reason: "must be positive"}
	}
	return nil
}

// Validate checks the speed and steering envelope
func (vc VehicleConfig) Validate() error {
	switch {
	case vc.MinSpeed <= 0:
		return &ConfigurationError{Key: "vehicle.minSpeed", Reason: "must be positive"}
	case vc.MaxSpeed > 255:
		return &ConfigurationError{Key: "vehicle.maxSpeed", Reason: "must fit in a byte"}
	case vc.MinSpeed > vc.MaxSpeed:
		return &ConfigurationError{Key: "vehicle.minSpeed", Reason: fmt.Sprintf("%d exceeds maxSpeed %d", vc.MinSpeed, vc.MaxSpeed)}
	case vc.AccelerationDelay <= 0:
		return &ConfigurationError{Key: "vehicle.accelerationDelay", Reason: "must be positive"}
	case vc.DecelerationDelay <= 0:
		return &ConfigurationError{Key: "vehicle.decelerationDelay", Reason: "must be positive"}
	case vc.AccelerationIncrement <= 0:
		return &ConfigurationError{Key: "vehicle.accelerationIncrement", Reason: "must be positive"}
	case vc.DecelerationIncrement <= 0:
		return &ConfigurationError{Key: "vehicle.decelerationIncrement", Reason: "must be positive"}
	case vc.RightAngle < 0 || vc.LeftAngle > 255:
		return &ConfigurationError{Key: "vehicle.leftAngle", Reason: "steering angles must fit in a byte"}
	case !(vc.RightAngle < vc.FrontAngle && vc.FrontAngle < vc.LeftAngle):
		return &ConfigurationError{
			Key:    "vehicle.frontAngle",
			Reason: fmt.Sprintf("need rightAngle < frontAngle < leftAngle, got %d/%d/%d", vc.RightAngle, vc.FrontAngle, vc.LeftAngle),
		}
	}
	return nil
}

// DefaultVehicle returns the built-in vehicle envelope
func DefaultVehicle() VehicleConfig {
	return VehicleConfig{
		MinSpeed:              100,
		MaxSpeed:              255,
		AccelerationDelay:     100 * time.Millisecond,
		DecelerationDelay:     100 * time.Millisecond,
		AccelerationIncrement: 5,
		DecelerationIncrement: 5,
		LeftAngle:             120,
		RightAngle:            60,
		FrontAngle:            90,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
