// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var envFile string

var rootCmd = &cobra.Command{
	Use:   "itur",
	Short: "geocode address lists and render coordinates in DDM and DMS",
	Long: `
itur resolves free-text postal addresses to coordinates through Google Maps or
Nominatim, writes them back next to the original columns in decimal, DDM and
DMS notation, and helps review suspicious results.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadEnv(envFile)
	},
}

// loadEnv reads path into the environment. Variables already set win and a
// missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"File with environment variables such as GOOGLE_MAPS_API_KEY",
	)
}
