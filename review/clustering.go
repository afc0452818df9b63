// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/uber/h3-go/v4"

	"github.com/jcodagnone/itur/address"
	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/spatial"
)

// Cluster is a set of distinct addresses resolved to the same place, which
// usually means some of them fell back to a city or street centroid.
type Cluster struct {
	// Cell is the shared H3 cell, empty for distance clusters.
	Cell      string        `json:"cell,omitempty"`
	Center    spatial.Point `json:"center"`
	Rows      []int         `json:"rows"`
	Addresses []string      `json:"addresses"`
}

type located struct {
	index   int
	address string
	point   *spatial.Point
}

func locatedRows(b *pipeline.Batch) []located {
	var out []located

	if b == nil {
		return out
	}

	for _, row := range b.Rows {
		if row.Outcome.Point != nil {
			out = append(out, located{index: row.Index, address: row.Address, point: row.Outcome.Point})
		}
	}

	return out
}

// Clusters groups the located rows of b by H3 cell, or by distance when
// opts.Radius is set, and keeps the groups holding more than one distinct
// address. Clusters are ordered by their first row.
func Clusters(b *pipeline.Batch, opts Options) ([]Cluster, error) {
	rows := locatedRows(b)

	var groups [][]located

	if opts.Radius > 0 {
		groups = clusterByDistance(rows, opts.Radius)
	} else {
		var err error
		if groups, err = clusterByCell(rows, opts.Resolution); err != nil {
			return nil, err
		}
	}

	clusters := []Cluster{}

	for _, g := range groups {
		if c, ok := newCluster(g); ok {
			if opts.Radius <= 0 {
				cell, _ := cellOf(g[0].point, opts.Resolution)
				c.Cell = cell.String()
			}

			clusters = append(clusters, c)
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Rows[0] < clusters[j].Rows[0] })

	return clusters, nil
}

func cellOf(p *spatial.Point, resolution int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to h3 cell at res %d: %w", p, resolution, err)
	}

	return cell, nil
}

func clusterByCell(rows []located, resolution int) ([][]located, error) {
	var (
		order  []h3.Cell
		groups = make(map[h3.Cell][]located)
	)

	for _, r := range rows {
		cell, err := cellOf(r.point, resolution)
		if err != nil {
			return nil, err
		}

		if _, ok := groups[cell]; !ok {
			order = append(order, cell)
		}

		groups[cell] = append(groups[cell], r)
	}

	out := make([][]located, 0, len(order))
	for _, cell := range order {
		out = append(out, groups[cell])
	}

	return out, nil
}

// clusterByDistance grows each cluster with every row within threshold meters
// of one of its members.
func clusterByDistance(rows []located, threshold float64) [][]located {
	clusters := make([][]located, 0, len(rows))
	visited := make([]bool, len(rows))

	for i, r1 := range rows {
		if visited[i] {
			continue
		}

		cluster := []located{r1}
		visited[i] = true

		for j, r2 := range rows {
			if visited[j] {
				continue
			}

			for _, member := range cluster {
				if r2.point.HaversineDistance(member.point) <= threshold {
					cluster = append(cluster, r2)
					visited[j] = true

					break
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// newCluster summarises g, or reports false when it holds a single distinct
// address.
func newCluster(g []located) (Cluster, bool) {
	distinct := make(map[string]bool)

	var c Cluster

	for _, r := range g {
		c.Rows = append(c.Rows, r.index)
		c.Addresses = append(c.Addresses, r.address)
		c.Center.Lat += r.point.Lat
		c.Center.Lng += r.point.Lng
		distinct[strings.ToLower(address.Normalize(r.address))] = true
	}

	if len(distinct) < 2 {
		return Cluster{}, false
	}

	n := float64(len(g))
	c.Center.Lat /= n
	c.Center.Lng /= n

	return c, true
}
