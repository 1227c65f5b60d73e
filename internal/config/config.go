// Package config provides configuration loading and management for the schema sync service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
)

const (
	// StoreTypeMemory keeps published records in process memory
	StoreTypeMemory = "memory"

	// StoreTypeSQLite shares published records through a local SQLite database file
	StoreTypeSQLite = "sqlite"

	// StoreTypePostgres shares published records through a PostgreSQL database
	StoreTypePostgres = "postgres"
)

const (
	// DefaultResyncInterval is used when source.resyncInterval is not set
	DefaultResyncInterval = 5 * time.Minute

	// DefaultDebounce is used when source.debounce is not set
	DefaultDebounce = time.Second

	// DefaultServerAddress is used when server.address is not set
	DefaultServerAddress = ":8080"

	// EnvPrefix is the prefix of every environment variable read by the service
	EnvPrefix = "THV_SCHEMA_SYNC"

	// DatabasePasswordEnv is the environment variable the database password
	// is read from when no password file is configured
	DatabasePasswordEnv = "THV_SCHEMA_SYNC_DATABASE_PASSWORD"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// NodeName identifies this node in the writer column of published records.
	// Defaults to the host name.
	NodeName string `yaml:"nodeName,omitempty"`

	Source    SourceConfig      `yaml:"source"`
	Store     StoreConfig       `yaml:"store,omitempty"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Server    ServerConfig      `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SourceConfig defines where the schema model is read from
type SourceConfig struct {
	// Path is the YAML or JSON model file
	Path string `yaml:"path"`

	// Watch enables reloading the model when the file changes
	Watch bool `yaml:"watch,omitempty"`

	// Debounce is how long file events are coalesced before a reload (e.g. "1s")
	Debounce string `yaml:"debounce,omitempty"`

	// ResyncInterval is how often the source is checked even without file
	// events, and how often incomplete publications are retried (e.g. "5m")
	ResyncInterval string `yaml:"resyncInterval,omitempty"`

	// RepublishInterval republishes an unchanged model once this long has
	// passed since the last publication. Empty disables it.
	RepublishInterval string `yaml:"republishInterval,omitempty"`
}

// StoreConfig selects the shared store implementation
type StoreConfig struct {
	// Type is one of memory, sqlite or postgres. Defaults to memory.
	Type string `yaml:"type,omitempty"`

	// Path is the SQLite database file, required for type sqlite
	Path string `yaml:"path,omitempty"`
}

// ServerConfig defines the operational HTTP server
type ServerConfig struct {
	// Address is the listen address, defaults to ":8080"
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from THV_SCHEMA_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(DatabasePasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", DatabasePasswordEnv,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)
	if d.MaxOpenConns > 0 {
		connString += fmt.Sprintf("&pool_max_conns=%d", d.MaxOpenConns)
	}

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetNodeName returns the configured node name, falling back to the host name
func (c *Config) GetNodeName() string {
	if c.NodeName != "" {
		return c.NodeName
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}

// GetStoreType returns the store type, using memory if not specified
func (c *Config) GetStoreType() string {
	if c.Store.Type == "" {
		return StoreTypeMemory
	}
	return c.Store.Type
}

// GetServerAddress returns the server address, using the default if not specified
func (c *Config) GetServerAddress() string {
	if c.Server.Address == "" {
		return DefaultServerAddress
	}
	return c.Server.Address
}

// GetResyncInterval returns the resync interval. Invalid values are rejected
// by validation, so parse errors fall back to the default.
func (s *SourceConfig) GetResyncInterval() time.Duration {
	return parseDurationOr(s.ResyncInterval, DefaultResyncInterval)
}

// GetRepublishInterval returns the republish interval, zero when disabled
func (s *SourceConfig) GetRepublishInterval() time.Duration {
	return parseDurationOr(s.RepublishInterval, 0)
}

// GetDebounce returns the file event debounce duration
func (s *SourceConfig) GetDebounce() time.Duration {
	return parseDurationOr(s.Debounce, DefaultDebounce)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration for missing or malformed settings
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateSource(&c.Source); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func validateSource(src *SourceConfig) error {
	if src.Path == "" {
		return fmt.Errorf("source.path is required")
	}

	durations := []struct {
		field string
		value string
	}{
		{field: "source.debounce", value: src.Debounce},
		{field: "source.resyncInterval", value: src.ResyncInterval},
		{field: "source.republishInterval", value: src.RepublishInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '1s', '5m'): %w", d.field, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.field, d.value)
		}
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.GetStoreType() {
	case StoreTypeMemory:
		return nil
	case StoreTypeSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required when store.type is %s", StoreTypeSQLite)
		}
		return nil
	case StoreTypePostgres:
		if c.Database == nil {
			return fmt.Errorf("database configuration is required when store.type is %s", StoreTypePostgres)
		}
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		return nil
	default:
		return fmt.Errorf("store.type must be one of %s, %s or %s, got %q",
			StoreTypeMemory, StoreTypeSQLite, StoreTypePostgres, c.Store.Type)
	}
}
