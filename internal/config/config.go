package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port string `yaml:"port" validate:"required"`
	Mode string `yaml:"mode" validate:"omitempty,oneof=debug release test"`
	// CSV exports allowed per client within ExportWindow; 0 disables the limit
	ExportLimit  int           `yaml:"export_limit" validate:"gte=0"`
	ExportWindow time.Duration `yaml:"export_window" validate:"gte=0"`
}

// DataConfig locates the raw sources, remotely and in the local cache
type DataConfig struct {
	RawDir          string        `yaml:"raw_dir" validate:"required"`
	TripURL         string        `yaml:"trip_url" validate:"required,url"`
	TripFile        string        `yaml:"trip_file" validate:"required"`
	ZoneURL         string        `yaml:"zone_url" validate:"required,url"`
	ZoneFile        string        `yaml:"zone_file" validate:"required"`
	DownloadTimeout time.Duration `yaml:"download_timeout" validate:"gte=0"`
	BatchSize       int           `yaml:"batch_size" validate:"gte=0"`
	// Optional window narrowing the selectable dates (YYYY-MM-DD)
	PeriodStart string `yaml:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `yaml:"period_end" validate:"omitempty,datetime=2006-01-02"`
}

// TripPath returns the local path of the trip file
func (d DataConfig) TripPath() string {
	return filepath.Join(d.RawDir, d.TripFile)
}

// ZonePath returns the local path of the zone lookup file
func (d DataConfig) ZonePath() string {
	return filepath.Join(d.RawDir, d.ZoneFile)
}

// SnapshotConfig controls the optional SQLite copy of the cleaned table
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "release",
			ExportLimit:  10,
			ExportWindow: time.Minute,
		},
		Data: DataConfig{
			RawDir:          "data/raw",
			TripURL:         "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2024-01.parquet",
			TripFile:        "yellow_tripdata_2024_01.parquet",
			ZoneURL:         "https://d37ci6vzurychx.cloudfront.net/misc/taxi_zone_lookup.csv",
			ZoneFile:        "taxi_zone_lookup.csv",
			DownloadTimeout: 10 * time.Minute,
			BatchSize:       4096,
		},
		Snapshot: SnapshotConfig{
			Enabled: false,
			Path:    "data/processed/trips.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 加载配置: defaults, then the YAML file at path if it exists, then
// environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Data.PeriodStart != "" && c.Data.PeriodEnd != "" && c.Data.PeriodStart > c.Data.PeriodEnd {
		return fmt.Errorf("invalid config: data.period_start %s is after data.period_end %s", c.Data.PeriodStart, c.Data.PeriodEnd)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Data.RawDir = dir
	}
	if path := os.Getenv("SNAPSHOT_PATH"); path != "" {
		cfg.Snapshot.Path = path
		cfg.Snapshot.Enabled = true
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}
