// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/peterstace/simplefeatures/geom"
)

// ErrRouteComplete is returned once the last waypoint has been reached
var ErrRouteComplete = errors.New("route complete")

// Route is an ordered list of waypoints with an arrival threshold
type Route struct {
	threshold float64

	mu        sync.Mutex
	waypoints []Point
	next      int
}

// NewRoute creates a route; threshold is the arrival radius in meters
func NewRoute(waypoints []Point, threshold float64) *Route {
	return &Route{
		waypoints: append([]Point(nil), waypoints...),
		threshold: threshold,
	}
}

// Guidance is the steering input derived from a fix and the route
type Guidance struct {
	Target   Point
	Index    int
	Distance float64 // meters
	Bearing  float64 // compass degrees
	Turn     float64 // relative degrees, positive right
}

// Guide advances past every waypoint within the threshold of fix and
// returns the guidance toward the next one. ErrRouteComplete is returned
// once every waypoint has been reached.
func (r *Route) Guide(fix Fix) (Guidance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.next < len(r.waypoints) {
		target := r.waypoints[r.next]
		dist := Haversine(fix.Position, target)
		if dist < r.threshold {
			r.next++
			continue
		}

		bearing := Bearing(fix.Position, target)
		return Guidance{
			Target:   target,
			Index:    r.next,
			Distance: dist,
			Bearing:  bearing,
			Turn:     TurnAngle(bearing, float64(fix.Heading)),
		}, nil
	}
	return Guidance{}, ErrRouteComplete
}

// Remaining returns the number of waypoints not yet reached
func (r *Route) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waypoints) - r.next
}

// Len returns the total number of waypoints
func (r *Route) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waypoints)
}

// pointsFromLineString converts GeoJSON (lon, lat) coordinates to points
func pointsFromLineString(ls geom.LineString) []Point {
	seq := ls.Coordinates()
	points := make([]Point, seq.Length())
	for i := range points {
		xy := seq.GetXY(i)
		points[i] = Point{Lat: xy.Y, Lon: xy.X}
	}
	return points
}

// ParseRouteGeoJSON reads a GeoJSON LineString of waypoints
func ParseRouteGeoJSON(data []byte) ([]Point, error) {
	var ls geom.LineString
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("parsing route geometry: %w", err)
	}
	points := pointsFromLineString(ls)
	if len(points) == 0 {
		return nil, fmt.Errorf("route has no waypoints")
	}
	return points, nil
}

// LoadRouteFile reads a GeoJSON LineString route from disk
func LoadRouteFile(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading route file: %w", err)
	}
	return ParseRouteGeoJSON(data)
}

// osrmResponse is the subset of the OSRM route service reply we use
type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
		Geometry geom.LineString `json:"geometry"`
	} `json:"routes"`
}

// RouteClient fetches driving routes from an OSRM server
type RouteClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRouteClient creates a client for the OSRM server at baseURL
func NewRouteClient(baseURL string) *RouteClient {
	return &RouteClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch requests a driving route from src to dst and returns its geometry
func (c *RouteClient) Fetch(ctx context.Context, src, dst Point) ([]Point, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid route server URL: %w", err)
	}
	u = u.JoinPath("route", "v1", "driving",
		fmt.Sprintf("%f,%f;%f,%f", src.Lon, src.Lat, dst.Lon, dst.Lat))
	q := u.Query()
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building route request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading route response: %w", err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding route response (HTTP %d): %w", resp.StatusCode, err)
	}
	if parsed.Code != "Ok" {
		return nil, fmt.Errorf("route service returned %s: %s", parsed.Code, parsed.Message)
	}
	if len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("route service returned no routes")
	}

	points := pointsFromLineString(parsed.Routes[0].Geometry)
	if len(points) == 0 {
		return nil, fmt.Errorf("route has no waypoints")
	}
	return points, nil
}
