// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/tabular"
)

type geocodeFlags struct {
	In        string
	Out       string
	Column    string
	Delimiter string
	Header    string
	Status    bool
}

var (
	geocodeArgs    = &geocodeFlags{}
	geocodeOptions = geocoding.DefaultOptions()
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode --in PATH --out PATH",
	Short: "Geocode every address of a CSV or XLSX file",
	Long: `Reads a delimited text or .xlsx file, geocodes the address column row by
row and writes the input back with lat, lon, lat_ddm, lon_ddm, lat_dms and
lon_dms columns appended. Rows that cannot be geocoded keep empty coordinates.

Interrupting the command stops after the current row and writes the rows
processed so far.

$ itur geocode --in addresses.csv --out out.csv --col Address
wrote output to: out.csv
`,
	Args: cobra.NoArgs,
	RunE: runGeocode,
}

func runGeocode(c *cobra.Command, _ []string) error {
	delimiter, err := tabular.ParseDelimiter(geocodeArgs.Delimiter)
	if err != nil {
		return err
	}

	header, err := tabular.ParseHeaderMode(geocodeArgs.Header)
	if err != nil {
		return err
	}

	table, err := tabular.ReadFile(geocodeArgs.In, tabular.ReadOptions{
		AddressColumn: geocodeArgs.Column,
		Delimiter:     delimiter,
		Header:        header,
	})
	if err != nil {
		return fmt.Errorf("reading %s: %w", geocodeArgs.In, err)
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := resolveOptions(c, geocodeOptions)
	describe(opts)

	locator, chain, err := geocoding.NewLocatorFromOptions(ctx, opts)
	if err != nil {
		return err
	}
	defer chain.Close()

	log.Printf("Geocoding %d addresses from %s", len(table.Rows), geocodeArgs.In)

	progress, finish := newProgress(len(table.Rows), "Geocoding")
	b, runErr := pipeline.New(locator).Run(ctx, table.Addresses(), progress)
	finish()

	if runErr != nil {
		if b == nil || !errors.Is(runErr, ctx.Err()) {
			return runErr
		}

		log.Printf("⚠️ Interrupted after %d of %d rows, writing partial results", b.Processed, len(b.Rows))
	}

	if err := tabular.WriteFile(geocodeArgs.Out, table, b, tabular.WriteOptions{IncludeStatus: geocodeArgs.Status}); err != nil {
		return fmt.Errorf("writing %s: %w", geocodeArgs.Out, err)
	}

	if b != nil {
		m := b.Metrics
		log.Printf("✅ %d found, %d not found, %d errors out of %d addresses", m.Found, m.NotFound, m.Errors, len(b.Rows))
	}

	fmt.Printf("wrote output to: %s\n", geocodeArgs.Out)

	return runErr
}

func init() {
	rootCmd.AddCommand(geocodeCmd)

	f := geocodeCmd.Flags()
	f.StringVar(&geocodeArgs.In, "in", "", "Input file, delimited text or .xlsx")
	f.StringVar(&geocodeArgs.Out, "out", "", "Output file, .xlsx writes a workbook")
	f.StringVar(&geocodeArgs.Column, "col", "", "Header of the address column. Defaults to the first column")
	f.StringVar(&geocodeArgs.Delimiter, "sep", ",", "Field delimiter: a single character, tab, or auto to detect it")
	f.StringVar(&geocodeArgs.Header, "header", "auto", "Whether the first row is a header: auto, yes or no")
	f.BoolVar(&geocodeArgs.Status, "status", false, "Append status and found_address columns")

	_ = geocodeCmd.MarkFlagRequired("in")
	_ = geocodeCmd.MarkFlagRequired("out")

	addGeocodingFlags(geocodeCmd, &geocodeOptions)
}
