// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/pipeline"
)

const (
	envProvider = "ITUR_PROVIDER"
	envLanguage = "ITUR_LANGUAGE"
)

// addGeocodingFlags binds the provider chain options of c to opts.
func addGeocodingFlags(c *cobra.Command, opts *geocoding.Options) {
	f := c.Flags()
	f.StringVar(&opts.Provider, "provider", opts.Provider,
		fmt.Sprintf("Geocoding provider, %s or %s (env %s)", geocoding.ProviderGoogle, geocoding.ProviderNominatim, envProvider))
	f.StringVar(&opts.APIKey, "api-key", "",
		fmt.Sprintf("Google Maps API key. Defaults to %s, then to Application Default Credentials", geocoding.APIKeyEnv))
	f.StringVar(&opts.Language, "language", opts.Language, fmt.Sprintf("Language of the returned addresses (env %s)", envLanguage))
	f.StringVar(&opts.Region, "region", opts.Region, "Country code biasing the results")
	f.DurationVar(&opts.RateLimitDelay, "delay", opts.RateLimitDelay, "Minimum delay between provider requests")
	f.StringVar(&opts.BaseURL, "base-url", "", "Override the provider endpoint")
	f.StringVar(&opts.CachePath, "cache-db", "", "DuckDB file caching provider answers. Disabled when empty")
	f.BoolVar(&opts.EnableHTTPTrace, "trace-http", false, "Display HTTP requests-responses")
	f.BoolVar(&opts.EnableHTTPBodyTrace, "trace-http-body", false, "Display HTTP requests-responses bodies")
}

// resolveOptions fills options not set by flags from the environment.
func resolveOptions(c *cobra.Command, opts geocoding.Options) geocoding.Options {
	if v := os.Getenv(envProvider); v != "" && !c.Flags().Changed("provider") {
		opts.Provider = v
	}

	if v := os.Getenv(envLanguage); v != "" && !c.Flags().Changed("language") {
		opts.Language = v
	}

	opts.UserAgent = fmt.Sprintf("itur/%s (%s)", Version, geocoding.DefaultUserAgent)

	return opts
}

func describe(opts geocoding.Options) {
	cache := "disabled"
	if opts.CachePath != "" {
		cache = opts.CachePath
	}

	log.Printf("📍 Geocoding: %s (language %s, region %s, delay %v, cache %s)",
		opts.Provider, opts.Language, opts.Region, opts.RateLimitDelay, cache)
}

// newProgress reports rows on a progress bar when stderr is a terminal and as
// log lines otherwise. The returned function finishes the bar.
func newProgress(total int, description string) (pipeline.ProgressFunc, func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func(p pipeline.Progress) {
			log.Printf("[%d/%d] %s: %s", p.Current, p.Total, p.Row.Outcome.Status, p.Row.Address)
		}, func() {}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	return func(pipeline.Progress) {
			if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar: %v", err)
			}
		}, func() {
			if err := bar.Finish(); err != nil {
				log.Printf("finishing progress bar: %v", err)
			}
		}
}
