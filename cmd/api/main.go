package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/topomap/internal/adapters/headless"
	"github.com/samirrijal/topomap/internal/adapters/http"
	natsadapter "github.com/samirrijal/topomap/internal/adapters/nats"
	"github.com/samirrijal/topomap/internal/adapters/postgres"
	"github.com/samirrijal/topomap/internal/adapters/valkey"
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
	"github.com/samirrijal/topomap/internal/core/usecases"
	"github.com/samirrijal/topomap/internal/pkg/config"
	"github.com/samirrijal/topomap/internal/pkg/logging"
	"github.com/samirrijal/topomap/internal/pkg/metrics"
	"github.com/samirrijal/topomap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("topomap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	deps := &http.Dependencies{DB: db}
	var (
		publisher ports.EventPublisher
		snapshots ports.SnapshotCache
	)

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		deps.Cache = cache
		snapshots = valkey.NewSnapshotCache(cache)
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
		deps.Feed = natsadapter.NewSubscriber(nc.Conn())
	}

	// Use cases
	nodeRepo := postgres.NewNodeRepo(db)
	center := domain.GeoPoint{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng}
	sessions := usecases.NewSessionService(headless.Engines(), nodeRepo, publisher, snapshots, usecases.SessionConfig{
		Map: ports.MapOptions{
			Center:   &center,
			Zoom:     cfg.Map.DefaultZoom,
			MinZoom:  cfg.Map.MinZoom,
			MaxZoom:  cfg.Map.MaxZoom,
			ZoomSnap: cfg.Map.ZoomSnap,
			TileSize: cfg.Map.TileSize,
		},
		DriftThreshold: cfg.Sync.DriftThreshold,
		MaxSessions:    cfg.Sessions.Max,
		SnapshotTTL:    cfg.Sessions.SnapshotTTL,
	})
	deps.Sessions = sessions
	deps.Nodes = usecases.NewNodeService(nodeRepo)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // node imports
		AppName:      "Topomap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.RouterConfig{})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// Unbind every session so the close events go out before NATS drains.
	sessions.CloseAll(shutdownCtx)

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
