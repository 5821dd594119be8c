package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/samirrijal/topomap/internal/pkg/geospatial"
)

var (
	tileSize float64
	width    float64
	height   float64
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

var rootCmd = &cobra.Command{
	Use:   "topomap",
	Short: "Offline viewport math for topology maps",
	Long: `topomap runs the map/graph coordinate transforms without a server:
project geographic points into graph space, measure distances and
compute the map view that frames a node export.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&tileSize, "tile-size", geospatial.DefaultTileSize, "map tile size in pixels")
	rootCmd.PersistentFlags().Float64Var(&width, "width", 800, "container width in pixels")
	rootCmd.PersistentFlags().Float64Var(&height, "height", 600, "container height in pixels")
}
