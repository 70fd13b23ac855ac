package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration when --config is not given.
const DefaultPath = "teamboard.yml"

// Storage drivers.
const (
	DriverRedis  = "redis"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvInstance = "TEAMBOARD_INSTANCE"
	EnvRedisURL = "TEAMBOARD_REDIS_URL"
)

// MaxInstanceNameLength is the maximum length for an instance name (DNS-compatible)
const MaxInstanceNameLength = 63

// InstanceNamePattern matches valid instance names: lowercase alphanumeric,
// hyphens allowed but not at start/end. The name becomes part of store keys
// and file names.
var InstanceNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateInstanceName checks if an instance name is valid according to DNS naming rules.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxInstanceNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxInstanceNameLength)
	}

	if !InstanceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// TeamboardConfig represents the top-level teamboard.yml configuration
type TeamboardConfig struct {
	Version       string               `yaml:"version"`
	Instance      string               `yaml:"instance"`
	Storage       *StorageConfig       `yaml:"storage,omitempty"`
	Loader        *LoaderConfig        `yaml:"loader,omitempty"`
	Confirmation  *ConfirmationConfig  `yaml:"confirmation,omitempty"`
	Notifications *NotificationsConfig `yaml:"notifications,omitempty"`
}

// StorageConfig selects and configures the durable store medium
type StorageConfig struct {
	Driver   string `yaml:"driver"`              // redis, file or memory
	RedisURL string `yaml:"redis_url,omitempty"` // redis driver only
	Path     string `yaml:"path,omitempty"`      // file driver only
}

// LoaderConfig configures cold-start hydration
type LoaderConfig struct {
	Delay   string `yaml:"delay,omitempty"`
	SeedDir string `yaml:"seed_dir,omitempty"` // empty: use the built-in dataset

	delay time.Duration
}

// ConfirmationConfig selects how status transitions are confirmed.
// Mode applies to every record unless StoreIDs is set, in which case the
// listed ids are confirmed via the store and all others via shared state.
type ConfirmationConfig struct {
	Mode     string         `yaml:"mode"` // store or shared
	StoreIDs []string       `yaml:"store_ids,omitempty"`
	Backend  *BackendConfig `yaml:"backend,omitempty"`
}

// BackendConfig configures the simulated confirmation backend
type BackendConfig struct {
	Latency       string   `yaml:"latency,omitempty"`
	FailureRate   float64  `yaml:"failure_rate,omitempty"`
	FailureReason string   `yaml:"failure_reason,omitempty"`
	FailIDs       []string `yaml:"fail_ids,omitempty"`

	latency time.Duration
}

// NotificationsConfig configures the notification emitter
type NotificationsConfig struct {
	Delay string `yaml:"delay,omitempty"`

	delay time.Duration
}

// Default returns a validated configuration backed by the file driver.
func Default() *TeamboardConfig {
	c := &TeamboardConfig{
		Version:  "1.0",
		Instance: "default",
		Storage:  &StorageConfig{Driver: DriverFile},
		Confirmation: &ConfirmationConfig{
			Mode: "store",
			Backend: &BackendConfig{
				FailureReason: "network down",
			},
		},
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation and fills in defaults
func (c *TeamboardConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if strings.TrimSpace(c.Instance) == "" {
		c.Instance = "default"
	}
	if err := ValidateInstanceName(c.Instance); err != nil {
		return err
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Loader == nil {
		c.Loader = &LoaderConfig{}
	}
	d, err := parseDuration("loader.delay", c.Loader.Delay, "1s")
	if err != nil {
		return err
	}
	c.Loader.delay = d

	if c.Confirmation == nil {
		c.Confirmation = &ConfirmationConfig{}
	}
	if err := c.Confirmation.Validate(); err != nil {
		return err
	}

	if c.Notifications == nil {
		c.Notifications = &NotificationsConfig{}
	}
	d, err = parseDuration("notifications.delay", c.Notifications.Delay, "100ms")
	if err != nil {
		return err
	}
	c.Notifications.delay = d

	return nil
}

// Validate checks the storage driver and applies per-driver defaults
func (s *StorageConfig) Validate() error {
	if s.Driver == "" {
		s.Driver = DriverFile
	}

	switch s.Driver {
	case DriverRedis:
		if s.RedisURL == "" {
			s.RedisURL = "redis://localhost:6379/0"
		}
	case DriverFile:
		if s.Path == "" {
			s.Path = ".teamboard"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver: %s (must be '%s', '%s' or '%s')", s.Driver, DriverRedis, DriverFile, DriverMemory)
	}

	return nil
}

// Validate checks the confirmation mode and backend settings
func (c *ConfirmationConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = "store"
	}
	if c.Mode != "store" && c.Mode != "shared" {
		return fmt.Errorf("invalid confirmation.mode: %s (must be 'store' or 'shared')", c.Mode)
	}

	for i, id := range c.StoreIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("confirmation.store_ids[%d] is empty", i)
		}
	}

	if c.Backend == nil {
		c.Backend = &BackendConfig{}
	}
	d, err := parseDuration("confirmation.backend.latency", c.Backend.Latency, "500ms")
	if err != nil {
		return err
	}
	c.Backend.latency = d

	if c.Backend.FailureRate < 0 || c.Backend.FailureRate > 1 {
		return fmt.Errorf("confirmation.backend.failure_rate must be between 0 and 1, got %g", c.Backend.FailureRate)
	}

	return nil
}

// LoaderDelay returns the parsed cold-path delay. Valid after Validate.
func (c *TeamboardConfig) LoaderDelay() time.Duration {
	return c.Loader.delay
}

// NotificationDelay returns the parsed dismiss-to-show delay. Valid after Validate.
func (c *TeamboardConfig) NotificationDelay() time.Duration {
	return c.Notifications.delay
}

// BackendLatency returns the parsed simulated confirmation latency. Valid after Validate.
func (c *TeamboardConfig) BackendLatency() time.Duration {
	return c.Confirmation.Backend.latency
}

func parseDuration(field, value, def string) (time.Duration, error) {
	if value == "" {
		value = def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", field, value)
	}
	return d, nil
}

// ApplyEnv overrides settings from the environment.
func (c *TeamboardConfig) ApplyEnv() {
	if v := os.Getenv(EnvInstance); v != "" {
		c.Instance = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		if c.Storage == nil {
			c.Storage = &StorageConfig{}
		}
		c.Storage.RedisURL = v
	}
}

// Load reads teamboard.yml from the specified path, applies environment
// overrides and validates the result
func Load(path string) (*TeamboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config TeamboardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOptional behaves like Load but falls back to Default, with environment
// overrides, when the file does not exist.
func LoadOptional(path string) (*TeamboardConfig, error) {
	config, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		config = Default()
		config.ApplyEnv()
		return config, config.Validate()
	}
	return config, err
}
