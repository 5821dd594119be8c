package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/pkg/geospatial"
	"github.com/samirrijal/topomap/internal/pkg/nodefile"
)

var (
	fitPadding float64
	fitSnap    float64
	fitMaxZoom float64
)

var fitCmd = &cobra.Command{
	Use:   "fit <nodes.csv|nodes.geojson>",
	Short: "Compute the map view that frames a node export",
	Args:  cobra.ExactArgs(1),
	RunE:  runFit,
}

func init() {
	fitCmd.Flags().Float64Var(&fitPadding, "padding", 0, "padding in pixels on each side")
	fitCmd.Flags().Float64Var(&fitSnap, "zoom-snap", 1, "zoom granularity, 0 for fractional zoom")
	fitCmd.Flags().Float64Var(&fitMaxZoom, "max-zoom", 18, "upper zoom limit")
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	if 2*fitPadding >= width || 2*fitPadding >= height {
		return fmt.Errorf("padding %g leaves no room in a %gx%g container", fitPadding, width, height)
	}

	format, err := nodefile.Detect(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := nodefile.Read(f, format)
	if err != nil {
		return err
	}
	bounds, err := nodeBounds(res.Nodes)
	if err != nil {
		return err
	}

	view := fitView(bounds, domain.Dimensions{Width: width, Height: height}, tileSize, fitPadding, fitSnap, fitMaxZoom)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d nodes (%d skipped)\n", brand.Sprint("topomap"), len(res.Nodes), res.Skipped)
	fmt.Fprintf(out, "  bounds  %.5f,%.5f .. %.5f,%.5f\n",
		bounds.SouthWest.Lat, bounds.SouthWest.Lng, bounds.NorthEast.Lat, bounds.NorthEast.Lng)
	fmt.Fprintf(out, "  center  %s\n", good.Sprintf("%.5f,%.5f", view.Center.Lat, view.Center.Lng))
	fmt.Fprintf(out, "  zoom    %s\n", good.Sprintf("%g", view.Zoom))
	return nil
}

func nodeBounds(nodes []domain.TopologyNode) (domain.GeoBounds, error) {
	if len(nodes) == 0 {
		return domain.GeoBounds{}, errors.New("no nodes with a location")
	}
	mp := make(orb.MultiPoint, 0, len(nodes))
	for _, n := range nodes {
		mp = append(mp, n.Location.Clamped().Orb())
	}
	return domain.BoundsFromOrb(mp.Bound()), nil
}

// fitView returns the largest zoom at which bounds fits inside size minus
// padding, rounded down to snap and capped at maxZoom.
func fitView(bounds domain.GeoBounds, size domain.Dimensions, tile, padding, snap, maxZoom float64) domain.MapView {
	nw := geospatial.Project(bounds.NorthWest(), tile, 0)
	se := geospatial.Project(bounds.SouthEast(), tile, 0)

	zoom := maxZoom
	if dx := se.X - nw.X; dx > 0 {
		zoom = math.Min(zoom, geospatial.ZoomForSpan(dx, size.Width-2*padding))
	}
	if dy := se.Y - nw.Y; dy > 0 {
		zoom = math.Min(zoom, geospatial.ZoomForSpan(dy, size.Height-2*padding))
	}
	if snap > 0 {
		zoom = math.Floor(zoom/snap+1e-9) * snap
	}
	zoom = math.Max(zoom, 0)

	// Center on the Mercator midpoint; the lat/lng midpoint sits too far
	// south once the box spans high latitudes.
	mid := domain.PixelPoint{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}
	center := geospatial.Unproject(mid, tile, 0)

	return domain.MapView{Center: center, Zoom: zoom, Bounds: bounds, Size: size}
}
