package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Providers ProvidersConfig `yaml:"providers"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Transport TransportConfig `yaml:"transport"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// TrackerConfig holds the tracking scheduler configuration.
type TrackerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	BatchSize       int           `yaml:"batch_size"`
	RetentionHours  int           `yaml:"retention_hours"`
}

// ProvidersConfig holds the AIS position provider configuration. Credentials
// come from the environment, never from the YAML file.
type ProvidersConfig struct {
	Primary   PrimaryProviderConfig   `yaml:"primary"`
	Secondary SecondaryProviderConfig `yaml:"secondary"`
}

// PrimaryProviderConfig configures the batch position provider.
type PrimaryProviderConfig struct {
	URL                  string        `yaml:"url"`
	Username             string        `yaml:"-"` // from PRIMARY_AIS_USERNAME
	MinRequestGapSeconds int           `yaml:"min_request_gap_seconds"`
	FetchAttempts        int           `yaml:"fetch_attempts"`
	RetryCooldownSeconds int           `yaml:"retry_cooldown_seconds"`
	RetryCooldown        time.Duration `yaml:"-"`
}

// SecondaryProviderConfig configures the per-vessel fallback provider.
type SecondaryProviderConfig struct {
	URL                  string        `yaml:"url"`
	Key                  string        `yaml:"-"` // from SECONDARY_AIS_KEY
	CooldownHours        int           `yaml:"cooldown_hours"`
	CooldownMatchedHours int           `yaml:"cooldown_matched_hours"`
	Cooldown             time.Duration `yaml:"-"`
	CooldownMatched      time.Duration `yaml:"-"`
}

// DeliveryConfig holds the outbound message delivery configuration.
type DeliveryConfig struct {
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	MaxAttempts     int           `yaml:"max_attempts"`
}

// TransportConfig holds the messaging gateway configuration.
type TransportConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	Token      string `yaml:"-"` // from MESSAGING_GATEWAY_TOKEN
}

// Load reads the configuration from the given path. A .env file next to the
// working directory is loaded first so local development does not need real
// environment variables.
func Load(path string) (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Providers.Primary.Username = os.Getenv("PRIMARY_AIS_USERNAME")
	cfg.Providers.Secondary.Key = os.Getenv("SECONDARY_AIS_KEY")
	cfg.Transport.Token = os.Getenv("MESSAGING_GATEWAY_TOKEN")

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Tracker.IntervalSeconds <= 0 {
		cfg.Tracker.IntervalSeconds = 180
	}
	cfg.Tracker.Interval = time.Duration(cfg.Tracker.IntervalSeconds) * time.Second
	if cfg.Tracker.BatchSize <= 0 {
		cfg.Tracker.BatchSize = 50
	}
	if cfg.Tracker.RetentionHours <= 0 {
		cfg.Tracker.RetentionHours = 168
	}

	p := &cfg.Providers.Primary
	if p.MinRequestGapSeconds <= 0 {
		p.MinRequestGapSeconds = 60
	}
	if p.FetchAttempts <= 0 {
		p.FetchAttempts = 5
	}
	if p.RetryCooldownSeconds <= 0 {
		p.RetryCooldownSeconds = 30
	}
	p.RetryCooldown = time.Duration(p.RetryCooldownSeconds) * time.Second

	s := &cfg.Providers.Secondary
	if s.CooldownHours <= 0 {
		s.CooldownHours = 24
	}
	if s.CooldownMatchedHours <= 0 {
		s.CooldownMatchedHours = 6
	}
	s.Cooldown = time.Duration(s.CooldownHours) * time.Hour
	s.CooldownMatched = time.Duration(s.CooldownMatchedHours) * time.Hour

	if cfg.Delivery.IntervalSeconds <= 0 {
		cfg.Delivery.IntervalSeconds = 15
	}
	cfg.Delivery.Interval = time.Duration(cfg.Delivery.IntervalSeconds) * time.Second
	if cfg.Delivery.MaxAttempts <= 0 {
		cfg.Delivery.MaxAttempts = 3
	}
}
