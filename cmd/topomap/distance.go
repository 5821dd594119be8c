package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/pkg/geospatial"
)

var distanceCmd = &cobra.Command{
	Use:   "distance <lat,lng> <lat,lng>",
	Short: "Great-circle distance between two points in meters",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat1, lng1, err := parsePair(args[0])
		if err != nil {
			return err
		}
		lat2, lng2, err := parsePair(args[1])
		if err != nil {
			return err
		}
		d := geospatial.Distance(domain.GeoPoint{Lat: lat1, Lng: lng1}, domain.GeoPoint{Lat: lat2, Lng: lng2})
		fmt.Fprintf(cmd.OutOrStdout(), "%s m\n", good.Sprintf("%.1f", d))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distanceCmd)
}
