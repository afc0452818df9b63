// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package review derives the data a reviewer needs to spot suspicious results
// in a batch: where the rendered notations disagree, which distinct addresses
// landed on the same spot, and the markers and route lines to plot.
package review

import (
	"math"

	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/spatial"
)

// ConsistencyTolerance is the largest difference, in degrees, tolerated
// between the DDM and DMS readings of the same coordinate.
const ConsistencyTolerance = 1e-5

// DefaultCenter is used when a batch has no located rows.
var DefaultCenter = spatial.Point{Lat: 32.08, Lng: 34.78}

// Color of a marker.
type Color string

const (
	Red   Color = "red"
	Green Color = "green"
)

// Marker is one point to plot.
type Marker struct {
	Index int           `json:"index"`
	Point spatial.Point `json:"point"`
	Title string        `json:"title"`
	Color Color         `json:"color"`
	// Notation is "ddm" or "dms" for the pair plotted on an inconsistency.
	Notation string `json:"notation,omitempty"`
}

// Route joins the first located row with another one.
type Route struct {
	Index int           `json:"index"`
	Start spatial.Point `json:"start"`
	End   spatial.Point `json:"end"`
}

// Finding reports a row whose DDM and DMS renderings decode to different
// coordinates.
type Finding struct {
	Index   int           `json:"index"`
	Address string        `json:"address"`
	DDM     spatial.Point `json:"ddm"`
	DMS     spatial.Point `json:"dms"`
	// Delta is the largest per-axis difference in degrees.
	Delta float64 `json:"delta"`
}

// readings decodes the rendered notations of row. ok is false when any of the
// four is missing or unparsable.
func readings(row pipeline.ResultRow) (ddm, dms spatial.Point, ok bool) {
	r := row.Renderings

	latDDM, ok1 := spatial.ParseDDM(r.LatDDM)
	lonDDM, ok2 := spatial.ParseDDM(r.LonDDM)
	latDMS, ok3 := spatial.ParseDMS(r.LatDMS)
	lonDMS, ok4 := spatial.ParseDMS(r.LonDMS)

	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ddm, dms, false
	}

	return spatial.Point{Lat: latDDM, Lng: lonDDM}, spatial.Point{Lat: latDMS, Lng: lonDMS}, true
}

// Check compares the DDM and DMS readings of row.
func Check(row pipeline.ResultRow) (Finding, bool) {
	ddm, dms, ok := readings(row)
	if !ok {
		return Finding{}, false
	}

	delta := math.Max(math.Abs(ddm.Lat-dms.Lat), math.Abs(ddm.Lng-dms.Lng))
	if delta <= ConsistencyTolerance {
		return Finding{}, false
	}

	return Finding{Index: row.Index, Address: row.Address, DDM: ddm, DMS: dms, Delta: delta}, true
}

// Findings returns the inconsistent rows of b.
func Findings(b *pipeline.Batch) []Finding {
	findings := []Finding{}

	if b == nil {
		return findings
	}

	for _, row := range b.Rows {
		if f, ok := Check(row); ok {
			findings = append(findings, f)
		}
	}

	return findings
}

func title(row pipeline.ResultRow) string {
	if row.Outcome.Label != "" {
		return row.Outcome.Label
	}

	return row.Address
}

// Markers returns a red marker per located row. A row with inconsistent
// renderings gets a red DDM marker and a green DMS marker instead.
func Markers(b *pipeline.Batch) []Marker {
	markers := []Marker{}

	if b == nil {
		return markers
	}

	for _, row := range b.Rows {
		p := row.Outcome.Point
		if p == nil {
			continue
		}

		t := title(row)

		if f, ok := Check(row); ok {
			markers = append(markers,
				Marker{Index: row.Index, Point: f.DDM, Title: t + " (DDM)", Color: Red, Notation: "ddm"},
				Marker{Index: row.Index, Point: f.DMS, Title: t + " (DMS)", Color: Green, Notation: "dms"},
			)

			continue
		}

		markers = append(markers, Marker{Index: row.Index, Point: *p, Title: t, Color: Red})
	}

	return markers
}

// Routes joins the first located row with every later one.
func Routes(b *pipeline.Batch) []Route {
	routes := []Route{}

	if b == nil {
		return routes
	}

	var start *spatial.Point

	for _, row := range b.Rows {
		p := row.Outcome.Point
		if p == nil {
			continue
		}

		if start == nil {
			start = p

			continue
		}

		routes = append(routes, Route{Index: row.Index, Start: *start, End: *p})
	}

	return routes
}

// Options configures Build.
type Options struct {
	// Resolution is the H3 resolution used to find shared locations.
	Resolution int
	// Radius, when positive, groups by distance in meters instead of cells.
	Radius float64
	// Routes adds route lines from the first located row.
	Routes bool
}

// DefaultOptions groups rows sharing a resolution 11 cell, about 25 m across.
func DefaultOptions() Options {
	return Options{Resolution: 11}
}

// Report is everything a reviewer needs for one batch.
type Report struct {
	Center   spatial.Point `json:"center"`
	Markers  []Marker      `json:"markers"`
	Routes   []Route       `json:"routes,omitempty"`
	Findings []Finding     `json:"findings"`
	Clusters []Cluster     `json:"clusters"`
}

// Build computes the report of b.
func Build(b *pipeline.Batch, opts Options) (*Report, error) {
	clusters, err := Clusters(b, opts)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Center:   DefaultCenter,
		Markers:  Markers(b),
		Findings: Findings(b),
		Clusters: clusters,
	}

	if len(r.Markers) > 0 {
		r.Center = r.Markers[0].Point
	}

	if opts.Routes {
		r.Routes = Routes(b)
	}

	return r, nil
}
