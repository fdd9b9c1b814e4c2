package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Refresher  RefresherConfig  `yaml:"refresher"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RefresherConfig holds the schedule-refresh configuration.
type RefresherConfig struct {
	Enabled         bool            `yaml:"enabled"`
	IntervalSeconds int             `yaml:"interval_seconds"`
	Interval        time.Duration   `yaml:"-"` // Ignored by YAML parser
	SettingsURL     string          `yaml:"settings_url"`
	Language        string          `yaml:"language"`
	Addresses       []AddressConfig `yaml:"addresses"`
}

// AddressConfig is one watched address as entered by the operator; the
// refresher resolves it against the remote service at startup.
type AddressConfig struct {
	Name        string `yaml:"name"`
	ZipCode     int    `yaml:"zip_code"`
	Street      string `yaml:"street"`
	HouseNumber int    `yaml:"house_number"`
	Language    string `yaml:"language"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" (default) or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Refresher.IntervalSeconds <= 0 {
		// The upstream schedule changes at most daily.
		cfg.Refresher.IntervalSeconds = 86400
	}
	cfg.Refresher.Interval = time.Duration(cfg.Refresher.IntervalSeconds) * time.Second

	if cfg.Refresher.Language == "" {
		cfg.Refresher.Language = "fr"
	}
	for i := range cfg.Refresher.Addresses {
		if cfg.Refresher.Addresses[i].Language == "" {
			cfg.Refresher.Addresses[i].Language = cfg.Refresher.Language
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
