package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/2beens/smartnotes/internal/storage"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// http surface
	AllowedOrigins           []string `toml:"allowed_origins"`
	MutationsRateLimitPerMin int      `toml:"mutations_rate_limit_per_min"`

	// notes
	StorageBackend   string `toml:"storage_backend"`
	StorageKey       string `toml:"storage_key"`
	DeadlineLocation string `toml:"deadline_location"`

	// storage backends
	MemoryMaxBlobKB int    `toml:"memory_max_blob_kb"`
	FileStorageDir  string `toml:"file_storage_dir"`
	BoltDBPath      string `toml:"bolt_db_path"`
	RedisHost       string `toml:"redis_host"`
	RedisPort       string `toml:"redis_port"`
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
	PostgresTable   string `toml:"postgres_table"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse reads the config from TOML text, used mostly in tests.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "memory"
	}
	if c.MemoryMaxBlobKB == 0 {
		c.MemoryMaxBlobKB = storage.DefaultMemoryMaxBlobKB
	}
	if c.StorageKey == "" {
		c.StorageKey = "smartnotes"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
}

func (c *Config) validate() error {
	if c.MemoryMaxBlobKB < 0 || c.MemoryMaxBlobKB > storage.MaxMemoryMaxBlobKB {
		return fmt.Errorf(
			"memory_max_blob_kb %d out of range [1, %d]",
			c.MemoryMaxBlobKB, storage.MaxMemoryMaxBlobKB,
		)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the zone used for deadlines entered without an offset.
func (c *Config) Location() (*time.Location, error) {
	if c.DeadlineLocation == "" || strings.EqualFold(c.DeadlineLocation, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DeadlineLocation)
	if err != nil {
		return nil, fmt.Errorf("deadline location %q: %w", c.DeadlineLocation, err)
	}
	return loc, nil
}
