// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jcodagnone/itur/address"
	"github.com/jcodagnone/itur/geocoding"
	"github.com/jcodagnone/itur/spatial"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

// eachLine calls fn with every non-empty line of stdin, prompting first when
// stdin is a terminal.
func eachLine(prompt string, fn func(line string) error) error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, prompt)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func printJSON(w io.Writer, key string, v any) error {
	s, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\t\t%s\n", key, s)

	return err
}

var debugVariantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "Print the variants suggested for each address",
	Long: `Reads one address per line and prints it followed by the alternative
spellings offered to cross-check its result.

$ echo "Herzl 12, Tel Aviv" | itur debug variants
Herzl 12, Tel Aviv		["Herzl, Tel Aviv","Herzl","Tel Aviv, Herzl 12",…]
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Enter addresses, one per line…", func(line string) error {
			return printJSON(os.Stdout, line, address.Variants(line))
		})
	},
}

// parseCoordinate reads "lat,lng" or "lat lng" as a point, or a single DDM or
// DMS value as decimal degrees.
func parseCoordinate(line string) (any, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 2 {
		lat, errLat := strconv.ParseFloat(fields[0], 64)
		lng, errLng := strconv.ParseFloat(fields[1], 64)

		if errLat == nil && errLng == nil {
			p := spatial.Point{Lat: lat, Lng: lng}
			if err := p.Validate(); err != nil {
				return nil, err
			}

			return p.Renderings(), nil
		}
	}

	if v, ok := spatial.ParseDMS(line); ok {
		return map[string]float64{"degrees": v}, nil
	}

	if v, ok := spatial.ParseDDM(line); ok {
		return map[string]float64{"degrees": v}, nil
	}

	return nil, fmt.Errorf("not a coordinate: %q", line)
}

var debugCoordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Convert coordinates between decimal, DDM and DMS",
	Long: `Reads one coordinate per line. A "lat,lng" pair in decimal degrees prints
its DDM and DMS renderings; a single DDM or DMS value prints its decimal form.

$ echo "32.0853,34.7818" | itur debug coords
32.0853,34.7818		{"lat_ddm":"32° 05.118' N","lon_ddm":"034° 46.908' E",…}
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Enter coordinates, one per line…", func(line string) error {
			v, err := parseCoordinate(line)
			if err != nil {
				fmt.Printf("%s\t%q\n", line, err)

				return nil
			}

			return printJSON(os.Stdout, line, v)
		})
	},
}

var debugLocateOptions = geocoding.DefaultOptions()

var debugLocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Geocode addresses and show which step resolved them",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		opts := resolveOptions(c, debugLocateOptions)

		locator, chain, err := geocoding.NewLocatorFromOptions(c.Context(), opts)
		if err != nil {
			return err
		}
		defer chain.Close()

		return eachLine("Enter addresses, one per line…", func(line string) error {
			res := locator.Locate(c.Context(), line)

			out := map[string]any{"step": res.Step.String()}
			if res.Found() {
				out["point"], out["label"] = res.Point, res.Label
			}

			if res.Err != nil {
				out["error"] = res.Err.Error()
			}

			return printJSON(os.Stdout, line, out)
		})
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugVariantsCmd)
	debugCmd.AddCommand(debugCoordsCmd)
	debugCmd.AddCommand(debugLocateCmd)

	addGeocodingFlags(debugLocateCmd, &debugLocateOptions)
}
