package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topomap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topomap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Sync metrics
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "sync",
		Name:      "total",
		Help:      "Camera synchronizations by direction and outcome",
	}, []string{"direction", "outcome"})

	DriftChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "sync",
		Name:      "drift_checks_total",
		Help:      "Drift guard evaluations by outcome",
	}, []string{"outcome"})

	DriftMeters = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "topomap",
		Subsystem: "sync",
		Name:      "drift_meters",
		Help:      "Corner distance between displayed and implied map bounds",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000, 10000, 100000},
	})

	Resizes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "sync",
		Name:      "resizes_total",
		Help:      "Renderer resizes handled by a binding",
	})

	ActiveBindings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "sync",
		Name:      "active_bindings",
		Help:      "Bindings currently in the bound state",
	})

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Viewport sessions currently open",
	})

	SessionOps = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topomap",
		Subsystem: "sessions",
		Name:      "operation_duration_seconds",
		Help:      "Session operation latency including settle time",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"operation"})

	UnsettledOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "sessions",
		Name:      "unsettled_total",
		Help:      "Operations whose event loop did not drain within the tick budget",
	}, []string{"operation"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topomap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topomap",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// ObserveSessionOp records how long a session operation took and whether its
// loop settled.
func ObserveSessionOp(op string, start time.Time, settled bool) {
	SessionOps.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if !settled {
		UnsettledOps.WithLabelValues(op).Inc()
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Keeps pgxpool out of this package's imports.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
