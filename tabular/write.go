// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/spatial"
)

var (
	// CoordinateColumns are appended to every output row.
	CoordinateColumns = []string{"lat", "lon", "lat_ddm", "lon_ddm", "lat_dms", "lon_dms"}
	// StatusColumns follow CoordinateColumns when WriteOptions.IncludeStatus is set.
	StatusColumns = []string{"status", "found_address"}
)

// WriteOptions configures the output.
type WriteOptions struct {
	// Delimiter defaults to the table's, then ','.
	Delimiter     rune
	IncludeStatus bool
}

// FormatDegrees renders a decimal coordinate in its shortest exact form.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Header returns the output header for t.
func Header(t *Table, opts WriteOptions) []string {
	h := append(t.Columns(), CoordinateColumns...)
	if opts.IncludeStatus {
		h = append(h, StatusColumns...)
	}

	return h
}

// Record returns the output cells for row: the original cells padded to the
// table width, then the coordinate columns.
func Record(t *Table, row pipeline.ResultRow, opts WriteOptions) []string {
	w := t.width()
	rec := make([]string, w, w+len(CoordinateColumns)+len(StatusColumns))

	switch {
	case row.Index >= 0 && row.Index < len(t.Rows):
		copy(rec, t.Rows[row.Index])
	case t.AddressIndex < w:
		rec[t.AddressIndex] = row.Address
	}

	lat, lon := "", ""
	if p := row.Outcome.Point; p != nil {
		lat, lon = FormatDegrees(p.Lat), FormatDegrees(p.Lng)
	}

	r := row.Renderings
	rec = append(rec, lat, lon, r.LatDDM, r.LonDDM, r.LatDMS, r.LonDMS)

	if opts.IncludeStatus {
		rec = append(rec, row.Outcome.Status.String(), row.Outcome.Label)
	}

	return rec
}

// Writer writes result rows incrementally.
type Writer struct {
	csv   *csv.Writer
	table *Table
	opts  WriteOptions
}

// NewWriter returns a Writer producing delimited text for rows of t.
func NewWriter(w io.Writer, t *Table, opts WriteOptions) *Writer {
	if opts.Delimiter == 0 {
		opts.Delimiter = t.Delimiter
	}

	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter

	return &Writer{csv: cw, table: t, opts: opts}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	if err := w.csv.Write(Header(w.table, w.opts)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return nil
}

// WriteRow writes one result row.
func (w *Writer) WriteRow(row pipeline.ResultRow) error {
	if err := w.csv.Write(Record(w.table, row, w.opts)); err != nil {
		return fmt.Errorf("writing row %d: %w", row.Index, err)
	}

	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()

	return w.csv.Error()
}

// rows returns one result row per table row. Rows missing from b, which is
// nil for an empty input, are pending.
func rows(t *Table, b *pipeline.Batch) []pipeline.ResultRow {
	out := make([]pipeline.ResultRow, len(t.Rows))
	addrs := t.Addresses()

	for i := range out {
		if b != nil && i < len(b.Rows) {
			out[i] = b.Rows[i]
		} else {
			out[i] = pipeline.ResultRow{Index: i, Address: addrs[i]}
		}

		out[i].Index = i
	}

	return out
}

// Write writes t enriched with b as delimited text.
func Write(w io.Writer, t *Table, b *pipeline.Batch, opts WriteOptions) error {
	tw := NewWriter(w, t, opts)
	if err := tw.WriteHeader(); err != nil {
		return err
	}

	for _, row := range rows(t, b) {
		if err := tw.WriteRow(row); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// WriteFile writes t enriched with b to path, as a workbook when
// IsSpreadsheet says so.
func WriteFile(path string, t *Table, b *pipeline.Batch, opts WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing output: %w", cerr))
		}
	}()

	if IsSpreadsheet(path) {
		return WriteXLSX(f, t, b, opts)
	}

	return Write(f, t, b, opts)
}

// pointOf returns the point of row, if any.
func pointOf(row pipeline.ResultRow) *spatial.Point {
	return row.Outcome.Point
}
