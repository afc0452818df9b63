// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jcodagnone/itur/pipeline"
)

// ReadXLSX reads the first sheet of a workbook. Delimiter options are ignored.
func ReadXLSX(r io.Reader, opts ReadOptions) (t *Table, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	records := make([][]string, 0, len(all))

	for _, row := range all {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		records = append(records, row)
	}

	return newTable(records, ',', opts)
}

// WriteXLSX writes t enriched with b as a single sheet workbook. Decimal
// coordinates are stored as numbers.
func WriteXLSX(w io.Writer, t *Table, b *pipeline.Batch, opts WriteOptions) (err error) {
	f := excelize.NewFile()

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	sheet := f.GetSheetName(0)

	if err := setRow(f, sheet, 1, toCells(Header(t, opts))); err != nil {
		return err
	}

	latCol := len(t.Columns())

	for i, row := range rows(t, b) {
		cells := toCells(Record(t, row, opts))
		if p := pointOf(row); p != nil {
			cells[latCol], cells[latCol+1] = p.Lat, p.Lng
		}

		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

func toCells(record []string) []any {
	cells := make([]any, len(record))
	for i, v := range record {
		cells[i] = v
	}

	return cells
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}

	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}

	return nil
}
