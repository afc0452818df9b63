// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/itur/geocoding"
)

var (
	cachePath      string
	cacheNamespace string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the geocoding cache",
}

func withCache(c *cobra.Command, fn func(db *sql.DB) error) error {
	db, err := geocoding.OpenCache(c.Context(), cachePath)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}

	return s
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached answers, newest first",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return withCache(c, func(db *sql.DB) error {
			entries, err := geocoding.ListCache(c.Context(), db, cacheNamespace)
			if err != nil {
				return err
			}

			a, b, d, e := strings.Repeat("─", 16), strings.Repeat("─", 10), strings.Repeat("─", 40), strings.Repeat("─", 24)
			fmt.Printf("╭─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, d, e)
			fmt.Printf("│ %-16s │ %-10s │ %-40s │ %-24s │\n", "Namespace", "Kind", "Query", "Point")
			fmt.Printf("├─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, d, e)

			for _, entry := range entries {
				point := "(none)"
				if entry.Point != nil {
					point = fmt.Sprintf("%.6f,%.6f", entry.Point.Lat, entry.Point.Lng)
				}

				fmt.Printf("│ %-16s │ %-10s │ %-40s │ %-24s │\n",
					truncate(entry.Namespace, 16), entry.Kind, truncate(entry.Query, 40), point)
			}

			fmt.Printf("╰─%s─┴─%s─┴─%s─┴─%s─╯\n", a, b, d, e)
			log.Printf("%d cached answers", len(entries))

			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached answers",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return withCache(c, func(db *sql.DB) error {
			n, err := geocoding.ClearCache(c.Context(), db, cacheNamespace)
			if err != nil {
				return err
			}

			log.Printf("🧹 Removed %d cached answers", n)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheCmd.PersistentFlags().StringVar(&cachePath, "cache-db", "itur-cache.duckdb", "DuckDB cache file")
	cacheCmd.PersistentFlags().StringVar(&cacheNamespace, "namespace", "",
		"Only entries of this provider:language:region namespace. Empty means all")
}
