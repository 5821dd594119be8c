package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Map       MapConfig       `mapstructure:"map"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// MapConfig holds the map a new session starts with.
type MapConfig struct {
	DefaultLat  float64 `mapstructure:"default_lat"`
	DefaultLng  float64 `mapstructure:"default_lng"`
	DefaultZoom float64 `mapstructure:"default_zoom"`
	MinZoom     float64 `mapstructure:"min_zoom"`
	MaxZoom     float64 `mapstructure:"max_zoom"`
	ZoomSnap    float64 `mapstructure:"zoom_snap"`
	TileSize    float64 `mapstructure:"tile_size"`
}

type SyncConfig struct {
	// DriftThreshold is in meters.
	DriftThreshold float64 `mapstructure:"drift_threshold"`
}

type SessionsConfig struct {
	Max         int `mapstructure:"max"`
	SnapshotTTL int `mapstructure:"snapshot_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "topomap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "topomap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	// Jakarta
	v.SetDefault("map.default_lat", -6.2)
	v.SetDefault("map.default_lng", 106.816666)
	v.SetDefault("map.default_zoom", 5)
	v.SetDefault("map.min_zoom", 0)
	v.SetDefault("map.max_zoom", 22)
	v.SetDefault("map.zoom_snap", 0)
	v.SetDefault("map.tile_size", 256)
	v.SetDefault("sync.drift_threshold", 1.0)
	v.SetDefault("sessions.max", 256)
	v.SetDefault("sessions.snapshot_ttl", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TOPOMAP_MAP_DEFAULT_ZOOM → map.default_zoom
	v.SetEnvPrefix("TOPOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		errs = append(errs, fmt.Sprintf("map.default_lat must be -90..90, got %g", c.Map.DefaultLat))
	}
	if c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		errs = append(errs, fmt.Sprintf("map.default_lng must be -180..180, got %g", c.Map.DefaultLng))
	}
	if c.Map.MinZoom < 0 || c.Map.MinZoom > c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.min_zoom must be 0..max_zoom, got %g", c.Map.MinZoom))
	}
	if c.Map.DefaultZoom < c.Map.MinZoom || c.Map.DefaultZoom > c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.default_zoom must be within min_zoom..max_zoom, got %g", c.Map.DefaultZoom))
	}
	if c.Map.ZoomSnap < 0 {
		errs = append(errs, "map.zoom_snap must not be negative")
	}
	if c.Map.TileSize <= 0 {
		errs = append(errs, "map.tile_size must be positive")
	}
	if c.Sync.DriftThreshold <= 0 {
		errs = append(errs, "sync.drift_threshold must be positive")
	}
	if c.Sessions.Max <= 0 {
		errs = append(errs, "sessions.max must be positive")
	}
	if c.Sessions.SnapshotTTL < 0 {
		errs = append(errs, "sessions.snapshot_ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
