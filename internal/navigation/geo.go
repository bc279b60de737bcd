// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package navigation tracks the vehicle position and turns a route into a
// bearing for the steering loop.
package navigation

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters
const EarthRadius = 6371000.0

// Point is a WGS84 position in degrees
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Haversine returns the great-circle distance between a and b in meters
func Haversine(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	// rounding can push h just past 1 for antipodal points
	h = math.Min(math.Max(h, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

// Bearing returns the initial compass bearing from a to b, in [0, 360).
// Identical points give 0.
func Bearing(a, b Point) float64 {
	if a == b {
		return 0
	}

	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dLambda := radians(b.Lon - a.Lon)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// TurnAngle returns how far to turn from heading to face target, in
// (-180, 180]. Positive values turn right (clockwise).
func TurnAngle(target, heading float64) float64 {
	d := math.Mod(target-heading, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
