package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/viewsync"
)

var projectInverse bool

var projectCmd = &cobra.Command{
	Use:   "project <lat,lng>...",
	Short: "Convert geographic points to graph coordinates",
	Long: `Projects each point with Web Mercator at zoom 0 and flips y against the
container height, the same transform a bound session applies to nodes.
With --inverse the arguments are graph x,y pairs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProject,
}

func init() {
	projectCmd.Flags().BoolVar(&projectInverse, "inverse", false, "convert graph x,y back to lat,lng")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	frame := currentFrame()
	out := cmd.OutOrStdout()
	for _, arg := range args {
		a, b, err := parsePair(arg)
		if err != nil {
			return err
		}
		if projectInverse {
			p := viewsync.GraphToGeo(frame, domain.GraphPoint{X: a, Y: b})
			fmt.Fprintf(out, "%s %s %.7f,%.7f\n", subtle.Sprint(arg), brand.Sprint("->"), p.Lat, p.Lng)
			continue
		}
		g := viewsync.GeoToGraph(frame, domain.GeoPoint{Lat: a, Lng: b})
		fmt.Fprintf(out, "%s %s %.4f,%.4f\n", subtle.Sprint(arg), brand.Sprint("->"), g.X, g.Y)
	}
	return nil
}

// parsePair reads "a,b".
func parsePair(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected a,b pair, got %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", s, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return a, b, nil
}
