package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default listener settings
	defaultListenAddr   = ":8000"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second

	// Default process settings
	defaultProcessKey = "default"

	// Default upload settings
	defaultUploadMaxBytes = 32 << 20 // 32 MiB

	// Default monitoring settings
	defaultMetricsMode   = MetricsModeScrape
	defaultMetricsPrefix = "procsim"
	defaultJobName       = "procsim"
	defaultStatsSchedule = "*/5 * * * *"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Store drivers understood by store.Open.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Metrics modes.
const (
	MetricsModeOff    = "off"
	MetricsModeScrape = "scrape"
	MetricsModePush   = "push"
)

// Config represents the complete application configuration
type Config struct {
	Listener   ListenerConfig   `yaml:"listener"`
	Store      StoreConfig      `yaml:"store"`
	Process    ProcessConfig    `yaml:"process"`
	Upload     UploadConfig     `yaml:"upload"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8000
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Driver is one of none, memory, sqlite or postgres. Empty means none,
	// which makes every store call fail as unavailable.
	Driver string `yaml:"driver"`
	// DSN is the sqlite file path or the postgres connection string.
	DSN string `yaml:"dsn"`
}

// ProcessConfig defines which process definition is served.
type ProcessConfig struct {
	// Key of the process served by the API. Overrides the key in the definition file.
	Key string `yaml:"key"`
	// Definition is an optional path to a YAML process definition.
	// The built-in definition is used when empty.
	Definition string `yaml:"definition"`
}

// UploadConfig bounds the upload endpoint.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// Mode is one of off, scrape or push.
	Mode               string `yaml:"mode"`
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
	// StatsSchedule is the cron spec for refreshing the per-stage event gauges.
	StatsSchedule string `yaml:"stats_schedule"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	drivers := []string{"", DriverNone, DriverMemory, DriverSQLite, DriverPostgres}
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("store driver must be one of: %s", strings.Join(drivers[1:], ", "))
	}
	if (c.Store.Driver == DriverSQLite || c.Store.Driver == DriverPostgres) && c.Store.DSN == "" {
		return fmt.Errorf("store dsn is required for the %s driver", c.Store.Driver)
	}
	if c.Listener.ReadTimeout <= 0 {
		return fmt.Errorf("listener read timeout must be positive")
	}
	if c.Listener.WriteTimeout <= 0 {
		return fmt.Errorf("listener write timeout must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	modes := []string{MetricsModeOff, MetricsModeScrape, MetricsModePush}
	if !slices.Contains(modes, c.Monitoring.Mode) {
		return fmt.Errorf("monitoring mode must be one of: %s", strings.Join(modes, ", "))
	}
	if c.Monitoring.Mode == MetricsModePush && c.Monitoring.VictoriaMetricsURL == "" {
		return fmt.Errorf("VictoriaMetrics URL is required in push mode")
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Listener.ReadTimeout == 0 {
		c.Listener.ReadTimeout = defaultReadTimeout
	}
	if c.Listener.WriteTimeout == 0 {
		c.Listener.WriteTimeout = defaultWriteTimeout
	}
	if c.Process.Key == "" && c.Process.Definition == "" {
		c.Process.Key = defaultProcessKey
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = defaultUploadMaxBytes
	}
	if c.Monitoring.Mode == "" {
		c.Monitoring.Mode = defaultMetricsMode
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Monitoring.StatsSchedule == "" {
		c.Monitoring.StatsSchedule = defaultStatsSchedule
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// Redacted returns a copy of the config with credentials removed from the store DSN.
func (c Config) Redacted() Config {
	if c.Store.Driver == DriverPostgres && c.Store.DSN != "" {
		c.Store.DSN = redactDSN(c.Store.DSN)
	}
	return c
}

// redactDSN masks the password of a URL-style DSN. Key/value DSNs are masked entirely.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "REDACTED"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "REDACTED")
	}
	return u.String()
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode YAML config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
