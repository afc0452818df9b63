// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointScan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    Point
		wantErr bool
	}{
		{"nil", nil, Point{}, false},
		{"duckdb text", []byte("POINT (34.7818 32.0853)"), Point{Lat: 32.0853, Lng: 34.7818}, false},
		{"string", "POINT(34.7818 32.0853)", Point{Lat: 32.0853, Lng: 34.7818}, false},
		{"struct", map[string]interface{}{"x": 34.7818, "y": 32.0853}, Point{Lat: 32.0853, Lng: 34.7818}, false},
		{"struct missing y", map[string]interface{}{"x": 34.7818}, Point{}, true},
		{"unsupported", 42, Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point

			err := p.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, p.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, p.Lng, 1e-9)
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	telAviv := &Point{Lat: 32.0853, Lng: 34.7818}
	jerusalem := &Point{Lat: 31.7683, Lng: 35.2137}

	d := telAviv.HaversineDistance(jerusalem)
	assert.InDelta(t, 54_000, d, 1_500)
	assert.Zero(t, telAviv.HaversineDistance(telAviv))
}

func TestPointValidate(t *testing.T) {
	assert.NoError(t, Point{Lat: 90, Lng: -180}.Validate())
	assert.Error(t, Point{Lat: 90.1, Lng: 0}.Validate())
	assert.Error(t, Point{Lat: 0, Lng: 180.5}.Validate())
}
