// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/spatial"
)

func found(index int, addr string, lat, lng float64, label string) pipeline.ResultRow {
	p := &spatial.Point{Lat: lat, Lng: lng}

	return pipeline.ResultRow{
		Index:      index,
		Address:    addr,
		Outcome:    pipeline.Outcome{Status: pipeline.StatusFound, Point: p, Label: label},
		Renderings: p.Renderings(),
	}
}

func missing(index int, addr string) pipeline.ResultRow {
	return pipeline.ResultRow{Index: index, Address: addr, Outcome: pipeline.Outcome{Status: pipeline.StatusNotFound}}
}

// skewed returns a located row whose DMS latitude is off by ten seconds.
func skewed(index int, addr string) pipeline.ResultRow {
	row := found(index, addr, 32.0853, 34.7818, "")
	row.Renderings.LatDMS = `32° 05' 17.08" N`

	return row
}

func TestCheck(t *testing.T) {
	_, ok := Check(found(0, "Tel Aviv", 32.0853, 34.7818, ""))
	assert.False(t, ok, "rendered notations agree")

	_, ok = Check(missing(1, "Jerusalem"))
	assert.False(t, ok, "no renderings")

	f, ok := Check(skewed(2, "Tel Aviv"))
	require.True(t, ok)
	assert.Equal(t, 2, f.Index)
	assert.InDelta(t, 10.0/3600, f.Delta, 1e-6)
	assert.InDelta(t, 32.0853, f.DDM.Lat, 1e-5)
	assert.InDelta(t, 34.7818, f.DMS.Lng, 1e-5)
}

func TestCheckRenderedValues(t *testing.T) {
	// rounding of the rendered notations stays within tolerance
	for _, v := range []float64{0, 0.00001, 31.7683, -33.8688, 89.99999} {
		row := found(0, "x", v, -v*2, "")
		_, ok := Check(row)
		assert.False(t, ok, "%v", v)
	}
}

func TestMarkers(t *testing.T) {
	b := &pipeline.Batch{Rows: []pipeline.ResultRow{
		found(0, "Tel Aviv", 32.0853, 34.7818, "תל אביב-יפו"),
		missing(1, "Jerusalem"),
		skewed(2, "Herzl 1, Tel Aviv"),
	}}

	markers := Markers(b)
	require.Len(t, markers, 3)

	assert.Equal(t, Marker{Index: 0, Point: spatial.Point{Lat: 32.0853, Lng: 34.7818}, Title: "תל אביב-יפו", Color: Red}, markers[0])

	assert.Equal(t, "Herzl 1, Tel Aviv (DDM)", markers[1].Title)
	assert.Equal(t, Red, markers[1].Color)
	assert.Equal(t, "ddm", markers[1].Notation)
	assert.Equal(t, "Herzl 1, Tel Aviv (DMS)", markers[2].Title)
	assert.Equal(t, Green, markers[2].Color)
	assert.Equal(t, "dms", markers[2].Notation)

	assert.Empty(t, Markers(nil))
}

func TestRoutes(t *testing.T) {
	b := &pipeline.Batch{Rows: []pipeline.ResultRow{
		missing(0, "nowhere"),
		found(1, "Tel Aviv", 32.0853, 34.7818, ""),
		found(2, "Jerusalem", 31.7683, 35.2137, ""),
		found(3, "Haifa", 32.794, 34.9896, ""),
	}}

	want := []Route{
		{Index: 2, Start: spatial.Point{Lat: 32.0853, Lng: 34.7818}, End: spatial.Point{Lat: 31.7683, Lng: 35.2137}},
		{Index: 3, Start: spatial.Point{Lat: 32.0853, Lng: 34.7818}, End: spatial.Point{Lat: 32.794, Lng: 34.9896}},
	}

	if diff := cmp.Diff(want, Routes(b)); diff != "" {
		t.Errorf("Routes() mismatch (-want +got):\n%s", diff)
	}
}

func TestClustersByCell(t *testing.T) {
	b := &pipeline.Batch{Rows: []pipeline.ResultRow{
		found(0, "Herzl 1, Tel Aviv", 32.0853, 34.7818, ""),
		found(1, "Jerusalem", 31.7683, 35.2137, ""),
		found(2, "Allenby 5, Tel Aviv", 32.0853, 34.7818, ""),
		found(3, "Jerusalem ", 31.7683, 35.2137, ""),
		missing(4, "nowhere"),
	}}

	clusters, err := Clusters(b, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, clusters, 1, "the same address twice is not a cluster")

	c := clusters[0]
	assert.NotEmpty(t, c.Cell)
	assert.Equal(t, []int{0, 2}, c.Rows)
	assert.Equal(t, []string{"Herzl 1, Tel Aviv", "Allenby 5, Tel Aviv"}, c.Addresses)
	assert.InDelta(t, 32.0853, c.Center.Lat, 1e-9)
}

func TestClustersInvalidResolution(t *testing.T) {
	b := &pipeline.Batch{Rows: []pipeline.ResultRow{found(0, "Tel Aviv", 32.0853, 34.7818, "")}}

	_, err := Clusters(b, Options{Resolution: 16})
	assert.Error(t, err)
}

func TestClustersByDistance(t *testing.T) {
	b := &pipeline.Batch{Rows: []pipeline.ResultRow{
		found(0, "a", 32.0853, 34.7818, ""),
		found(1, "b", 32.0857, 34.7818, ""), // ~45 m north of a
		found(2, "c", 32.0861, 34.7818, ""), // ~45 m north of b
		found(3, "d", 31.7683, 35.2137, ""),
	}}

	clusters, err := Clusters(b, Options{Radius: 50})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Empty(t, clusters[0].Cell)
	assert.Equal(t, []int{0, 1, 2}, clusters[0].Rows)
	assert.InDelta(t, 32.0857, clusters[0].Center.Lat, 1e-9)
}

func TestBuild(t *testing.T) {
	r, err := Build(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultCenter, r.Center)
	assert.Empty(t, r.Markers)
	assert.Nil(t, r.Routes)

	b := &pipeline.Batch{Rows: []pipeline.ResultRow{
		missing(0, "nowhere"),
		found(1, "Jerusalem", 31.7683, 35.2137, ""),
		skewed(2, "Tel Aviv"),
	}}

	opts := DefaultOptions()
	opts.Routes = true

	r, err = Build(b, opts)
	require.NoError(t, err)
	assert.Equal(t, spatial.Point{Lat: 31.7683, Lng: 35.2137}, r.Center)
	assert.Len(t, r.Markers, 3)
	assert.Len(t, r.Routes, 1)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, 2, r.Findings[0].Index)
	assert.Empty(t, r.Clusters)
}
