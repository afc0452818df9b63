// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package tabular reads address lists from delimited text or spreadsheets and
// writes them back enriched with coordinates.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// HeaderMode says whether the first row is a header.
type HeaderMode int

const (
	// HeaderAuto sniffs the first rows.
	HeaderAuto HeaderMode = iota
	// HeaderPresent treats the first row as a header.
	HeaderPresent
	// HeaderAbsent treats every row as data.
	HeaderAbsent
)

// ParseHeaderMode accepts auto, yes/true and no/false.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return HeaderAuto, nil
	case "yes", "true", "present":
		return HeaderPresent, nil
	case "no", "false", "absent":
		return HeaderAbsent, nil
	default:
		return HeaderAuto, fmt.Errorf("invalid header mode %q (want auto, yes or no)", s)
	}
}

// ParseDelimiter accepts a single character, "tab" or "auto". Auto is 0.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}

	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}

	return r[0], nil
}

// ReadOptions configures Read.
type ReadOptions struct {
	// AddressColumn names the header column holding addresses. Empty means
	// the first column.
	AddressColumn string
	// Delimiter separates fields. Zero sniffs it.
	Delimiter rune
	Header    HeaderMode
}

// ErrColumnNotFound matches every *ColumnNotFoundError.
var ErrColumnNotFound = errors.New("address column not found")

// ColumnNotFoundError reports a requested column missing from the header.
type ColumnNotFoundError struct {
	Column string
	// Header is nil when the input has no header row.
	Header []string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Header == nil {
		return fmt.Sprintf("address column %q not found: the input has no header row", e.Column)
	}

	quoted := make([]string, len(e.Header))
	for i, h := range e.Header {
		quoted[i] = strconv.Quote(h)
	}

	return fmt.Sprintf("address column %q not found in header [%s]", e.Column, strings.Join(quoted, ", "))
}

// Is makes errors.Is(err, ErrColumnNotFound) succeed.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// Table is an address list with its original cells.
type Table struct {
	// Header is nil when the input had none.
	Header       []string
	Rows         [][]string
	AddressIndex int
	// Delimiter is the one read, or sniffed, from the input.
	Delimiter rune
}

// FromAddresses builds a single column table titled "address".
func FromAddresses(addresses []string) *Table {
	t := &Table{Header: []string{"address"}, Delimiter: ','}
	for _, a := range addresses {
		t.Rows = append(t.Rows, []string{a})
	}

	return t
}

// Addresses returns the address cell of every row, "" for rows too short to
// have one.
func (t *Table) Addresses() []string {
	addrs := make([]string, len(t.Rows))

	for i, row := range t.Rows {
		if t.AddressIndex < len(row) {
			addrs[i] = strings.TrimSpace(row[t.AddressIndex])
		}
	}

	return addrs
}

// width is the number of original columns written back.
func (t *Table) width() int {
	w := max(len(t.Header), t.AddressIndex+1)
	for _, row := range t.Rows {
		w = max(w, len(row))
	}

	return w
}

// Columns returns the header written back: the original one, padded, or a
// synthesised "address", "column_N" header for headerless input.
func (t *Table) Columns() []string {
	w := t.width()
	cols := make([]string, w)

	for i := range cols {
		switch {
		case i < len(t.Header):
			cols[i] = t.Header[i]
		case t.Header == nil && i == t.AddressIndex:
			cols[i] = "address"
		default:
			cols[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	return cols
}

// findColumn looks name up exactly, then ignoring case and spaces.
func findColumn(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}

	name = strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}

	return -1
}

// newTable splits records into header and rows and locates the address column.
func newTable(records [][]string, delimiter rune, opts ReadOptions) (*Table, error) {
	t := &Table{Delimiter: delimiter}

	hasHeader := false

	switch opts.Header {
	case HeaderPresent:
		hasHeader = len(records) > 0
	case HeaderAbsent:
	default:
		hasHeader = len(records) > 0 &&
			((opts.AddressColumn != "" && findColumn(records[0], opts.AddressColumn) >= 0) || SniffHeader(records))
	}

	if hasHeader {
		t.Header = records[0]
		records = records[1:]
	}

	t.Rows = records

	if opts.AddressColumn == "" {
		return t, nil
	}

	idx := findColumn(t.Header, opts.AddressColumn)
	if t.Header == nil || idx < 0 {
		return nil, &ColumnNotFoundError{Column: opts.AddressColumn, Header: t.Header}
	}

	t.AddressIndex = idx

	return t, nil
}

// decode strips a byte order mark, decoding UTF-16 when the mark says so,
// and replaces invalid UTF-8.
func decode(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return data, nil
}

// Read parses delimited text. The whole input is held in memory.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	data, err := decode(r)
	if err != nil {
		return nil, err
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = SniffDelimiter(string(data))
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing delimited input: %w", err)
	}

	return newTable(records, delimiter, opts)
}

// IsSpreadsheet reports whether path names an .xlsx workbook.
func IsSpreadsheet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// ReadFile reads path, as a workbook when IsSpreadsheet says so.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	if IsSpreadsheet(path) {
		return ReadXLSX(f, opts)
	}

	return Read(f, opts)
}
