package viewsync

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// LocationAccessor reads a node's geographic position from its attributes.
type LocationAccessor func(attrs map[string]any) (domain.GeoPoint, bool)

// Observer receives sync outcomes, e.g. for metrics.
type Observer interface {
	CameraSynced(applied bool)
	MapSynced(applied bool)
	DriftChecked(meters float64, resynced bool)
	Resized()
	StateChanged(from, to State)
}

type nopObserver struct{}

func (nopObserver) CameraSynced(bool)          {}
func (nopObserver) MapSynced(bool)             {}
func (nopObserver) DriftChecked(float64, bool) {}
func (nopObserver) Resized()                   {}
func (nopObserver) StateChanged(State, State)  {}

type options struct {
	mapOptions     ports.MapOptions
	location       LocationAccessor
	scheduler      ports.Scheduler
	driftThreshold float64
	logger         *slog.Logger
	observer       Observer
	layerID        string
}

// Option configures a Binding.
type Option func(*options)

// WithMapOptions overrides the map construction parameters.
func WithMapOptions(o ports.MapOptions) Option {
	return func(opts *options) { opts.mapOptions = o }
}

// WithLocationAccessor overrides how lat/lng are read from node attributes.
func WithLocationAccessor(fn LocationAccessor) Option {
	return func(opts *options) {
		if fn != nil {
			opts.location = fn
		}
	}
}

// WithScheduler sets the event loop used for next-tick work.
func WithScheduler(s ports.Scheduler) Option {
	return func(opts *options) { opts.scheduler = s }
}

// WithDriftThreshold sets the corner distance in meters above which a map
// move resyncs the graph camera.
func WithDriftThreshold(meters float64) Option {
	return func(opts *options) {
		if meters > 0 {
			opts.driftThreshold = meters
		}
	}
}

// WithLogger sets the binding's logger.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

// WithObserver registers a sync observer.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithLayerID names the overlay layer holding the map.
func WithLayerID(id string) Option {
	return func(opts *options) {
		if id != "" {
			opts.layerID = id
		}
	}
}

func defaultOptions() options {
	return options{
		location:       DefaultLocation,
		scheduler:      immediate{},
		driftThreshold: DefaultDriftThreshold,
		logger:         slog.Default(),
		observer:       nopObserver{},
		layerID:        "geo-map",
	}
}

// immediate runs deferred work synchronously; used when no loop is supplied.
type immediate struct{}

func (immediate) Defer(fn func()) { fn() }

// DefaultLocation reads "lat"/"lng", falling back to "latitude"/"longitude".
func DefaultLocation(attrs map[string]any) (domain.GeoPoint, bool) {
	if p, ok := locationFrom(attrs, "lat", "lng"); ok {
		return p, true
	}
	return locationFrom(attrs, "latitude", "longitude")
}

func locationFrom(attrs map[string]any, latKey, lngKey string) (domain.GeoPoint, bool) {
	lat, ok := toFloat(attrs[latKey])
	if !ok {
		return domain.GeoPoint{}, false
	}
	lng, ok := toFloat(attrs[lngKey])
	if !ok {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
