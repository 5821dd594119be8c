package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/pkg/geospatial"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name    string
		a, b    domain.GeoPoint
		want    float64
		epsilon float64
	}{
		{"same point", domain.GeoPoint{Lat: -6.17, Lng: 106.82}, domain.GeoPoint{Lat: -6.17, Lng: 106.82}, 0, 1e-6},
		{"one degree of longitude at the equator", domain.GeoPoint{}, domain.GeoPoint{Lng: 1}, 111195, 5},
		{"Jakarta to Surabaya", domain.GeoPoint{Lat: -6.17, Lng: 106.82}, domain.GeoPoint{Lat: -7.25, Lng: 112.75}, 665775, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geospatial.Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Distance = %.1f, want %.1f ± %.1f", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestCornerDrift(t *testing.T) {
	a := domain.GeoBounds{SouthWest: domain.GeoPoint{Lat: 0, Lng: 0}, NorthEast: domain.GeoPoint{Lat: 1, Lng: 1}}
	b := domain.GeoBounds{SouthWest: domain.GeoPoint{Lat: 0, Lng: 0}, NorthEast: domain.GeoPoint{Lat: 1, Lng: 2}}

	if d := geospatial.CornerDrift(a, a); d != 0 {
		t.Errorf("identical boxes drift %f", d)
	}
	want := geospatial.Distance(a.NorthEast, b.NorthEast)
	if d := geospatial.CornerDrift(a, b); d != want {
		t.Errorf("CornerDrift = %f, want %f", d, want)
	}
}

func TestProject_WorldCorners(t *testing.T) {
	origin := geospatial.Project(domain.GeoPoint{}, geospatial.DefaultTileSize, 0)
	if math.Abs(origin.X-128) > 1e-9 || math.Abs(origin.Y-128) > 1e-9 {
		t.Errorf("0,0 at zoom 0 = %+v, want 128,128", origin)
	}

	edge := geospatial.Project(domain.GeoPoint{Lat: domain.MaxValidLatitude, Lng: -180}, geospatial.DefaultTileSize, 2)
	if math.Abs(edge.X) > 1e-6 || math.Abs(edge.Y) > 1e-3 {
		t.Errorf("north-west corner = %+v, want ~0,0", edge)
	}
}

func TestUnproject_RoundTrip(t *testing.T) {
	p := domain.GeoPoint{Lat: -7.25, Lng: 112.75}
	for _, zoom := range []float64{0, 5.5, 18} {
		got := geospatial.Unproject(geospatial.Project(p, geospatial.DefaultTileSize, zoom), geospatial.DefaultTileSize, zoom)
		if math.Abs(got.Lat-p.Lat) > 1e-9 || math.Abs(got.Lng-p.Lng) > 1e-9 {
			t.Errorf("zoom %g: round trip %+v, want %+v", zoom, got, p)
		}
	}
}

func TestZoomForSpan(t *testing.T) {
	if z := geospatial.ZoomForSpan(256, 1024); z != 2 {
		t.Errorf("ZoomForSpan(256, 1024) = %f, want 2", z)
	}
}
