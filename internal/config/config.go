package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/retain/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "retain.yaml"

	// DefaultDriver is the default persistence backend.
	DefaultDriver = "memory"

	// DefaultStoreKey is the default key snapshots are saved under.
	DefaultStoreKey = "retain:snapshot"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "retain"
)

// Config represents retain.yaml.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Inspect InspectConfig `yaml:"inspect"`
	Metrics MetricsConfig `yaml:"metrics"`

	// path stores the path where the config was loaded from.
	path string
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is the minimum level logged.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format selects the handler: text or json.
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	// Driver is the backend: memory, sqlite, badger or s3.
	Driver string `yaml:"driver" validate:"required,oneof=memory sqlite badger s3"`

	// Path is the SQLite file or Badger directory.
	Path string `yaml:"path,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `yaml:"bucket,omitempty" validate:"required_if=Driver s3"`

	// Prefix is prepended to S3 object keys.
	Prefix string `yaml:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible services.
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// Key is the key snapshots are saved under.
	Key string `yaml:"key" validate:"required"`
}

// InspectConfig configures the inspector server.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" validate:"required,alphanum"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: DefaultDriver,
			Key:    DefaultStoreKey,
		},
		Inspect: InspectConfig{
			Addr: DefaultInspectAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load loads retain.yaml from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads and validates the config at path. A missing file yields
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.New("E501").Wrap(err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E501").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid YAML")
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields an explicit but partial file left empty.
func (c *Config) applyDefaults() {
	d := New()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.Key == "" {
		c.Store.Key = d.Store.Key
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case "sqlite":
			c.Store.Path = "retain.db"
		case "badger":
			c.Store.Path = "retain.badger"
		}
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = d.Inspect.Addr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			fields = append(fields, err.Error())
		}
		return errors.New("E501").
			WithDetail(strings.Join(fields, "; ")).
			Wrap(err)
	}
	return nil
}

// Save writes the config back to the path it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E501").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E501").Wrap(err)
	}
	c.path = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// SlogLevel maps Level to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
