// Copyright 2025 The Itur Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Axis selects which hemisphere letters and degree width a value is rendered with.
type Axis int

const (
	// Latitude renders with two-digit degrees and N/S.
	Latitude Axis = iota
	// Longitude renders with three-digit degrees and E/W.
	Longitude
)

func (a Axis) hemisphere(value float64) string {
	if a == Latitude {
		if value >= 0 {
			return "N"
		}

		return "S"
	}

	if value >= 0 {
		return "E"
	}

	return "W"
}

func (a Axis) degreeFormat() string {
	if a == Latitude {
		return "%02d"
	}

	return "%03d"
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatDDM renders value as degrees and decimal minutes: DD° MM.mmm' H.
// Non finite values render as the empty string.
func FormatDDM(value float64, axis Axis) string {
	if !finite(value) {
		return ""
	}

	abs := math.Abs(value)
	deg := math.Floor(abs)
	minutes := (abs - deg) * 60

	return fmt.Sprintf(axis.degreeFormat()+"° %06.3f' %s", int(deg), minutes, axis.hemisphere(value))
}

// FormatDMS renders value as degrees, minutes and decimal seconds: DD° MM' SS.ss" H.
// Non finite values render as the empty string.
func FormatDMS(value float64, axis Axis) string {
	if !finite(value) {
		return ""
	}

	abs := math.Abs(value)
	deg := math.Floor(abs)
	rem := (abs - deg) * 60
	minutes := math.Floor(rem)
	seconds := (rem - minutes) * 60

	return fmt.Sprintf(axis.degreeFormat()+"° %02d' %05.2f\" %s", int(deg), int(minutes), seconds, axis.hemisphere(value))
}

var (
	ddmRegex = regexp.MustCompile(`(\d+)[°º]\s*([0-9.]+)'\s*([NSEW])`)
	dmsRegex = regexp.MustCompile(`(\d+)[°º]\s*(\d+)'\s*([0-9.]+)"\s*([NSEW])`)
)

func signed(value float64, hemisphere string) float64 {
	if hemisphere == "S" || hemisphere == "W" {
		return -value
	}

	return value
}

// ParseDDM is the inverse of FormatDDM. It returns false when s does not
// contain a DDM coordinate.
func ParseDDM(s string) (float64, bool) {
	m := ddmRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	deg, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	minutes, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}

	return signed(float64(deg)+minutes/60, m[3]), true
}

// ParseDMS is the inverse of FormatDMS. It returns false when s does not
// contain a DMS coordinate.
func ParseDMS(s string) (float64, bool) {
	m := dmsRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	deg, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}

	return signed(float64(deg)+float64(minutes)/60+seconds/3600, m[4]), true
}

// Renderings holds the textual notations of a point.
type Renderings struct {
	LatDDM string `json:"lat_ddm"`
	LonDDM string `json:"lon_ddm"`
	LatDMS string `json:"lat_dms"`
	LonDMS string `json:"lon_dms"`
}

// Renderings returns the DDM and DMS notations of the point. A nil point
// yields empty strings.
func (p *Point) Renderings() Renderings {
	if p == nil {
		return Renderings{}
	}

	return Renderings{
		LatDDM: FormatDDM(p.Lat, Latitude),
		LonDDM: FormatDDM(p.Lng, Longitude),
		LatDMS: FormatDMS(p.Lat, Latitude),
		LonDMS: FormatDMS(p.Lng, Longitude),
	}
}
