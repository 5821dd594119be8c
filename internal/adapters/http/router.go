package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/topomap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// RouterConfig tunes SetupRoutes. The zero value is usable.
type RouterConfig struct {
	// RateLimit is requests per minute per IP (default 600).
	RateLimit int
	// SpecPath is the OpenAPI document served at /docs (default DefaultSpecPath).
	SpecPath string
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, cfg RouterConfig) {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 600
	}
	if cfg.SpecPath == "" {
		cfg.SpecPath = DefaultSpecPath
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Map drags produce bursts of session updates; the limit is generous.
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Viewport sessions
	v1.Get("/sessions", ListSessionsHandler(deps))
	v1.Post("/sessions", withTimeout(CreateSessionHandler(deps)))
	v1.Get("/sessions/:id", withTimeout(GetSessionHandler(deps)))
	v1.Delete("/sessions/:id", withTimeout(DeleteSessionHandler(deps)))
	v1.Put("/sessions/:id/map", withTimeout(MoveMapHandler(deps)))
	v1.Put("/sessions/:id/bounds", withTimeout(FitBoundsHandler(deps)))
	v1.Put("/sessions/:id/camera", withTimeout(SetCameraHandler(deps)))
	v1.Put("/sessions/:id/size", withTimeout(ResizeHandler(deps)))

	// Topology nodes
	v1.Get("/nodes", withTimeout(ListNodesHandler(deps)))
	v1.Post("/nodes", withTimeout(ImportNodesHandler(deps)))
	v1.Get("/nodes/in-bounds", withTimeout(NodesInBoundsHandler(deps)))
	v1.Get("/nodes/:id", withTimeout(GetNodeHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, cfg.SpecPath)

	if deps.Feed != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Feed)))
	}
}
