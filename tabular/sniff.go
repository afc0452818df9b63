// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"strconv"
	"strings"
)

const (
	// sampleSize is how much of the input is inspected when sniffing.
	sampleSize = 2048
	// maxSniffRows bounds the rows voting on the header.
	maxSniffRows = 20
)

// DelimiterCandidates are the delimiters recognised by the sniffer, in order
// of preference.
var DelimiterCandidates = []rune{',', ';', '\t', '|'}

// sampleLines returns the complete lines of the first sampleSize bytes of data.
func sampleLines(data string) []string {
	sample := data
	truncated := len(sample) > sampleSize

	if truncated {
		sample = sample[:sampleSize]
	}

	lines := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	if truncated && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}

	out := lines[:0]

	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}

	return out
}

// countOutside counts d in line, ignoring occurrences inside double quotes.
func countOutside(line string, d rune) int {
	n, quoted := 0, false

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}

	return n
}

// SniffDelimiter guesses the delimiter of a delimited text. The candidate
// whose most common non-zero per-line count covers the most lines wins. With
// no signal at all it returns ','.
func SniffDelimiter(data string) rune {
	lines := sampleLines(data)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', 0.0

	for _, d := range DelimiterCandidates {
		freq := make(map[int]int)
		for _, l := range lines {
			freq[countOutside(l, d)]++
		}

		mode, modeFreq := 0, 0

		for count, f := range freq {
			if count > 0 && (f > modeFreq || (f == modeFreq && count > mode)) {
				mode, modeFreq = count, f
			}
		}

		if mode == 0 {
			continue
		}

		if score := float64(modeFreq) / float64(len(lines)); score > bestScore {
			best, bestScore = d, score
		}
	}

	return best
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)

	return err == nil
}

// columnType is -1 for numeric columns, otherwise the common value length.
type columnType int

const numericColumn columnType = -1

func typeOf(value string) columnType {
	if isNumber(value) {
		return numericColumn
	}

	return columnType(len([]rune(value)))
}

// SniffHeader guesses whether records[0] is a header.
//
// Every later row of the same width votes per column: a column whose values
// are all numeric, or all of one length, is typed; the first row's cell then
// votes "header" when it does not fit that type and "data" when it does.
// Columns of mixed type abstain. Ties, including no votes at all, count as a
// header.
func SniffHeader(records [][]string) bool {
	if len(records) < 2 {
		return true
	}

	header := records[0]
	types := make(map[int]columnType, len(header))
	mixed := make(map[int]bool)

	rows := records[1:]
	if len(rows) > maxSniffRows {
		rows = rows[:maxSniffRows]
	}

	for _, row := range rows {
		if len(row) != len(header) {
			continue
		}

		for col, value := range row {
			if mixed[col] {
				continue
			}

			t := typeOf(value)

			prev, seen := types[col]

			switch {
			case !seen:
				types[col] = t
			case prev != t:
				delete(types, col)

				mixed[col] = true
			}
		}
	}

	votes := 0

	for col, t := range types {
		if typeOf(header[col]) == t {
			votes--
		} else {
			votes++
		}
	}

	return votes >= 0
}
