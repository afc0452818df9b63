// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/review"
	"github.com/jcodagnone/itur/server"
)

var (
	serveAddr    string
	serveConfig  = server.Config{Review: review.DefaultOptions()}
	serveOptions = geocoding.DefaultOptions()
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive geocoding API (local only)",
	Long: `Serves a JSON and CSV API to geocode uploads or pasted lists, export the
last batch, suggest and verify address variants, and review the results.
Prometheus metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := resolveOptions(c, serveOptions)
		describe(opts)

		locator, chain, err := geocoding.NewLocatorFromOptions(ctx, opts)
		if err != nil {
			return err
		}
		defer chain.Close()

		return server.New(locator, serveConfig).Run(ctx, serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", server.DefaultAddr, "Address to listen on")
	f.StringSliceVar(&serveConfig.CORSOrigins, "cors-origin", nil, "Origins allowed to call the API from a browser")
	f.IntVar(&serveConfig.Review.Resolution, "review-resolution", serveConfig.Review.Resolution,
		"H3 resolution grouping addresses that landed on the same spot")
	f.Float64Var(&serveConfig.Review.Radius, "review-radius", 0,
		"Group addresses closer than this many meters instead of by H3 cell")

	addGeocodingFlags(serveCmd, &serveOptions)
}
