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
	Scan      ScanConfig      `mapstructure:"scan"`
	Imagery   ImageryConfig   `mapstructure:"imagery"`
	Vision    VisionConfig    `mapstructure:"vision"`
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
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// ScanConfig tunes the scan engine and region validation.
type ScanConfig struct {
	MinZoom             int     `mapstructure:"min_zoom"`
	MaxZoom             int     `mapstructure:"max_zoom"`
	TileDelayMS         int     `mapstructure:"tile_delay_ms"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	DedupRadiusMeters   float64 `mapstructure:"dedup_radius_meters"`
	MinAreaSqDeg        float64 `mapstructure:"min_area_sq_deg"`
	MaxAreaSqDeg        float64 `mapstructure:"max_area_sq_deg"`
	SecondsPerTile      float64 `mapstructure:"seconds_per_tile"`
}

// ImageryConfig points at the aerial imagery tile servers. URLs are
// templates with {z}/{x}/{y} placeholders; the fallback serves when the
// primary fails.
type ImageryConfig struct {
	PrimaryURL     string `mapstructure:"primary_url"`
	FallbackURL    string `mapstructure:"fallback_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// VisionConfig points at the feature-detection model endpoint.
type VisionConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
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
	v.SetDefault("database.user", "lostfound")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "lostfound")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("scan.min_zoom", 12)
	v.SetDefault("scan.max_zoom", 17)
	v.SetDefault("scan.tile_delay_ms", 1500)
	v.SetDefault("scan.confidence_threshold", 0.5)
	v.SetDefault("scan.dedup_radius_meters", 50)
	v.SetDefault("scan.min_area_sq_deg", 0.0001)
	v.SetDefault("scan.max_area_sq_deg", 1.0)
	v.SetDefault("scan.seconds_per_tile", 4.0)
	v.SetDefault("imagery.primary_url", "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}")
	v.SetDefault("imagery.fallback_url", "https://basemap.nationalmap.gov/arcgis/rest/services/USGSImageryOnly/MapServer/tile/{z}/{y}/{x}")
	v.SetDefault("imagery.timeout_seconds", 20)
	v.SetDefault("vision.base_url", "https://api.openai.com/v1")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.timeout_seconds", 60)
	v.SetDefault("vision.max_attempts", 3)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LOSTFOUND_DATABASE_HOST → database.host
	v.SetEnvPrefix("LOSTFOUND")
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
	if c.Scan.MinZoom < 1 || c.Scan.MaxZoom > 22 || c.Scan.MinZoom > c.Scan.MaxZoom {
		errs = append(errs, fmt.Sprintf("scan zoom bounds must satisfy 1 <= min <= max <= 22, got %d..%d", c.Scan.MinZoom, c.Scan.MaxZoom))
	}
	if c.Scan.ConfidenceThreshold < 0 || c.Scan.ConfidenceThreshold > 1 {
		errs = append(errs, "scan.confidence_threshold must be within [0,1]")
	}
	if c.Scan.DedupRadiusMeters <= 0 {
		errs = append(errs, "scan.dedup_radius_meters must be positive")
	}
	if c.Scan.MinAreaSqDeg <= 0 || c.Scan.MaxAreaSqDeg <= c.Scan.MinAreaSqDeg {
		errs = append(errs, "scan area bounds must satisfy 0 < min < max")
	}
	if c.Imagery.PrimaryURL == "" {
		errs = append(errs, "imagery.primary_url is required")
	}
	if c.Vision.BaseURL == "" {
		errs = append(errs, "vision.base_url is required")
	}
	if c.Vision.Model == "" {
		errs = append(errs, "vision.model is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
