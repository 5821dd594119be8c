package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/topomap/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("topomap-test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "topomap-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Map.TileSize != 256 || cfg.Map.MaxZoom != 22 {
		t.Errorf("map = %+v", cfg.Map)
	}
	if cfg.Sync.DriftThreshold != 1 {
		t.Errorf("sync.drift_threshold = %g, want 1", cfg.Sync.DriftThreshold)
	}
	if cfg.Sessions.Max != 256 || cfg.Sessions.SnapshotTTL != 300 {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOPOMAP_MAP_DEFAULT_ZOOM", "11.5")
	t.Setenv("TOPOMAP_SYNC_DRIFT_THRESHOLD", "0.25")
	t.Setenv("TOPOMAP_SESSIONS_MAX", "4")

	cfg, err := config.Load("topomap-test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Map.DefaultZoom != 11.5 {
		t.Errorf("map.default_zoom = %g, want 11.5", cfg.Map.DefaultZoom)
	}
	if cfg.Sync.DriftThreshold != 0.25 {
		t.Errorf("sync.drift_threshold = %g, want 0.25", cfg.Sync.DriftThreshold)
	}
	if cfg.Sessions.Max != 4 {
		t.Errorf("sessions.max = %d, want 4", cfg.Sessions.Max)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("TOPOMAP_SYNC_DRIFT_THRESHOLD", "-1")

	_, err := config.Load("topomap-test")
	if err == nil || !strings.Contains(err.Error(), "sync.drift_threshold") {
		t.Fatalf("Load() error = %v, want drift threshold complaint", err)
	}
}

func validConfig() config.Config {
	return config.Config{
		Server:   config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Database: config.DatabaseConfig{Host: "localhost", Port: 5432, User: "topomap", DBName: "topomap"},
		NATS:     config.NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   config.ValkeyConfig{Addr: "localhost:6379"},
		Map:      config.MapConfig{DefaultLat: -6.2, DefaultLng: 106.8, DefaultZoom: 5, MaxZoom: 22, TileSize: 256},
		Sync:     config.SyncConfig{DriftThreshold: 1},
		Sessions: config.SessionsConfig{Max: 10, SnapshotTTL: 60},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"no db host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"latitude out of range", func(c *config.Config) { c.Map.DefaultLat = 91 }, "map.default_lat"},
		{"longitude out of range", func(c *config.Config) { c.Map.DefaultLng = -181 }, "map.default_lng"},
		{"zoom above max", func(c *config.Config) { c.Map.DefaultZoom = 23 }, "map.default_zoom"},
		{"min above max", func(c *config.Config) { c.Map.MinZoom = 30 }, "map.min_zoom"},
		{"negative snap", func(c *config.Config) { c.Map.ZoomSnap = -0.5 }, "map.zoom_snap"},
		{"no tile size", func(c *config.Config) { c.Map.TileSize = 0 }, "map.tile_size"},
		{"zero sessions", func(c *config.Config) { c.Sessions.Max = 0 }, "sessions.max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "topo", SSLMode: "disable"}
	want := "postgres://u:p@db:5433/topo?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
