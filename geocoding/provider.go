// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves free-text addresses to coordinates.
//
// A Provider is the narrow capability offered by an external geocoding
// service. The Locator drives a Provider through a fixed fallback strategy,
// and the remaining types decorate a Provider with rate limiting, caching and
// metrics.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcodagnone/itur/spatial"
)

// Candidate is a single match returned by a Provider.
type Candidate struct {
	Point    spatial.Point `json:"point"`
	Label    string        `json:"label,omitempty"`
	Geometry *Geometry     `json:"geometry,omitempty"`
}

// StructuredQuery asks for a street within a city.
type StructuredQuery struct {
	Street string `json:"street"`
	City   string `json:"city"`
	// Geometry requests the feature's shape along with its point.
	Geometry bool `json:"geometry,omitempty"`
}

func (q StructuredQuery) String() string {
	return fmt.Sprintf("street=%q city=%q", q.Street, q.City)
}

// Provider is an external geocoding service.
//
// Implementations return an empty slice, not an error, when nothing matches.
// Candidates are ordered by the provider's preference.
type Provider interface {
	Geocode(ctx context.Context, query string) ([]Candidate, error)
	GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error)
}

// Geometry is a GeoJSON geometry as returned by the provider.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// FirstVertex returns the first vertex of a LineString, or the first vertex of
// the first line of a MultiLineString. Other geometry types have no vertex.
func (g *Geometry) FirstVertex() (spatial.Point, bool) {
	if g == nil {
		return spatial.Point{}, false
	}

	var first []float64

	switch g.Type {
	case "LineString":
		var coords [][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) == 0 {
			return spatial.Point{}, false
		}

		first = coords[0]
	case "MultiLineString":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) == 0 || len(coords[0]) == 0 {
			return spatial.Point{}, false
		}

		first = coords[0][0]
	default:
		return spatial.Point{}, false
	}

	// GeoJSON positions are [longitude, latitude]
	if len(first) < 2 {
		return spatial.Point{}, false
	}

	return spatial.Point{Lat: first[1], Lng: first[0]}, true
}
