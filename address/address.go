// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package address splits free-text postal addresses into their components and
// derives alternative spellings used to cross-check geocoding results.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenSeparators = regexp.MustCompile(`[;|,]+`)

// Tokens splits an address on runs of ';', '|' and ',' and returns the
// trimmed, non-empty parts.
func Tokens(addr string) []string {
	var parts []string

	for _, p := range tokenSeparators.Split(addr, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return parts
}

// Normalize returns s in Unicode NFC form with surrounding spaces removed.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// StripMarks removes combining marks (accents, Hebrew niqqud).
func StripMarks(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		s,
	)

	return s
}

// Components is the comma structure "street [number], ..., city".
type Components struct {
	Street string
	Number string
	City   string
}

var streetNumberRegex = regexp.MustCompile(`^(.*?)\s*(\d+)?$`)

// Split decomposes an address into street, trailing house number and city.
// The city is the last comma separated part when there are at least two.
func Split(addr string) Components {
	a := strings.TrimSpace(addr)

	var parts []string

	for _, p := range strings.Split(a, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var c Components

	streetPart := a
	if len(parts) > 0 {
		streetPart = parts[0]
	}

	if len(parts) > 1 {
		c.City = parts[len(parts)-1]
	}

	c.Street = streetPart

	if m := streetNumberRegex.FindStringSubmatch(streetPart); m != nil {
		street := strings.TrimSpace(m[1])
		// a bare number is a street name, not a house number
		if street != "" {
			c.Street = street
			c.Number = m[2]
		}
	}

	return c
}
