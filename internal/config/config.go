// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Event overlap policies applied when an owner creates a blocking event over
// existing bookings.
const (
	OverlapAllow  = "allow"
	OverlapWarn   = "warn"
	OverlapReject = "reject"
)

type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	Filename      string `yaml:"filename"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

type BookingConfig struct {
	// Initial status for owner-entered and player-initiated bookings.
	OwnerStatus  string `yaml:"owner_status"`
	PlayerStatus string `yaml:"player_status"`
}

type SweeperConfig struct {
	Enabled                bool `yaml:"enabled"`
	IntervalSeconds        int  `yaml:"interval_seconds"`
	GraceMinutes           int  `yaml:"grace_minutes"`
	IncludeUnpaidConfirmed bool `yaml:"include_unpaid_confirmed"`
	CompleteAfterEnd       bool `yaml:"complete_after_end"`
}

type EventsConfig struct {
	OverlapPolicy string `yaml:"overlap_policy"`
}

type CheckinConfig struct {
	TokenKey                 string `yaml:"-"` // Loaded from environment
	VerifyPerCallerPerMinute int    `yaml:"verify_per_caller_per_minute"`
	VerifyPerIPPerMinute     int    `yaml:"verify_per_ip_per_minute"`
}

type RedisConfig struct {
	URL     string `yaml:"-"` // Loaded from environment
	LockTTL int    `yaml:"lock_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"-"` // Loaded from environment
	Exchange string `yaml:"exchange"`
}

type EmailConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FromEmail        string `yaml:"from_email"`
	FromName         string `yaml:"from_name"`
	Region           string `yaml:"region"`
	ConfigurationSet string `yaml:"configuration_set"`
}

type Config struct {
	App struct {
		Name            string `yaml:"name"`
		Environment     string `yaml:"environment"`
		LogLevel        string `yaml:"log_level"`
		Port            int    `yaml:"port"`
		Timezone        string `yaml:"timezone"`
		ShutdownTimeout int    `yaml:"shutdown_timeout_seconds"`
		// TrustProxy reads client IPs from X-Forwarded-For and X-Real-IP.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Events   EventsConfig   `yaml:"events"`
	Checkin  CheckinConfig  `yaml:"checkin"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Email    EmailConfig    `yaml:"email"`
}

// Default returns a configuration populated with the documented defaults.
func Default() *Config {
	var cfg Config
	cfg.App.Name = "courtbook"
	cfg.App.Environment = "development"
	cfg.App.LogLevel = "info"
	cfg.App.Port = 8080
	cfg.App.Timezone = "UTC"
	cfg.App.ShutdownTimeout = 30
	cfg.Database.Driver = "sqlite"
	cfg.Database.Filename = "data/courtbook.db"
	cfg.Database.BusyTimeoutMS = 5000
	cfg.Booking.OwnerStatus = "confirmed"
	cfg.Booking.PlayerStatus = "pending"
	cfg.Sweeper.Enabled = true
	cfg.Sweeper.IntervalSeconds = 60
	cfg.Sweeper.GraceMinutes = 15
	cfg.Sweeper.IncludeUnpaidConfirmed = true
	cfg.Sweeper.CompleteAfterEnd = true
	cfg.Events.OverlapPolicy = OverlapWarn
	cfg.Checkin.VerifyPerCallerPerMinute = 60
	cfg.Checkin.VerifyPerIPPerMinute = 120
	cfg.Redis.LockTTL = 30
	cfg.RabbitMQ.Exchange = "courtbook.events"
	return &cfg
}

// Load loads both .env and yaml configuration. Keys missing from the yaml
// file keep their defaults.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Checkin.TokenKey = os.Getenv("CHECKIN_TOKEN_KEY")
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.RabbitMQ.URL = os.Getenv("AMQP_URL")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes yaml over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	for name, status := range map[string]string{
		"booking.owner_status":  c.Booking.OwnerStatus,
		"booking.player_status": c.Booking.PlayerStatus,
	} {
		if status != "pending" && status != "confirmed" {
			return fmt.Errorf("%s must be pending or confirmed, got %q", name, status)
		}
	}

	if c.Sweeper.Enabled && c.Sweeper.IntervalSeconds <= 0 {
		return fmt.Errorf("sweeper interval_seconds must be positive")
	}
	if c.Sweeper.GraceMinutes < 0 {
		return fmt.Errorf("sweeper grace_minutes must not be negative")
	}

	switch c.Events.OverlapPolicy {
	case OverlapAllow, OverlapWarn, OverlapReject:
	default:
		return fmt.Errorf("unsupported events overlap_policy: %s", c.Events.OverlapPolicy)
	}

	if c.Checkin.VerifyPerCallerPerMinute <= 0 || c.Checkin.VerifyPerIPPerMinute <= 0 {
		return fmt.Errorf("checkin verify rate limits must be positive")
	}

	if c.Email.Enabled && c.Email.FromEmail == "" {
		return fmt.Errorf("email from_email is required when email is enabled")
	}

	return nil
}

// Location resolves app.timezone. An empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeout) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalSeconds) * time.Second
}

func (c *Config) SweepGrace() time.Duration {
	return time.Duration(c.Sweeper.GraceMinutes) * time.Minute
}
