package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/webfiles/internal/util"
	"gopkg.in/yaml.v3"
)

// Bytes per MB
const MB = 1024 * 1024

// Supported storage backends. See the adapters package.
const (
	OSBackend     = "os"
	MemoryBackend = "memory"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultBaseDir           = "./data"
	DefaultListenAddr        = "127.0.0.1:3000"
	DefaultBackend           = OSBackend
	DefaultLogLvl            = util.InfoLevel
	DefaultLogFormat         = util.TextFormat
	DefaultAllowSymlinks     = false
	DefaultCreateBaseDir     = true
	DefaultEventQueueSize    = 256
	DefaultMaxContentBytes   = 1 * MB
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultMetricsAddr       = "" // disabled
)

// Verbosity values accepted by [ConfigOverride.LogLvl], matching the -v flag.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Config contains runtime configuration values for the file service.
type Config struct {
	// Sandbox root; every operation must resolve beneath it (Default ./data)
	BaseDir string `validate:"required"`
	// HTTP listen address (Default 127.0.0.1:3000)
	ListenAddr string `validate:"required,hostname_port"`
	// Storage backend, "os" or "memory" (Default os)
	Backend string `validate:"required,oneof=os memory"`
	// Internal log level (Default info)
	LogLvl util.LogLevel `validate:"gte=0,lte=4"`
	// Log output format, "text" or "json" (Default text)
	LogFormat string `validate:"required,oneof=text json"`
	// Permit symlinked components beneath BaseDir (Default false)
	AllowSymlinks bool
	// Create BaseDir at startup if missing (Default true)
	CreateBaseDir bool
	// Notification bus queue capacity (Default 256)
	EventQueueSize int `validate:"gt=0"`
	// Max request body size accepted for form-encoded content (Default 1MB)
	MaxContentBytes int64 `validate:"gt=0"`
	// Graceful shutdown bound (Default 10s)
	ShutdownTimeout time.Duration `validate:"gt=0"`
	// http.Server ReadHeaderTimeout (Default 5s)
	ReadHeaderTimeout time.Duration `validate:"gt=0"`
	// Prometheus listener address; empty disables metrics (Default "")
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	BaseDir           *string        `yaml:"base_dir,omitempty" json:"base_dir,omitempty"`
	ListenAddr        *string        `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	Backend           *string        `yaml:"backend,omitempty" json:"backend,omitempty"`
	LogLvl            *int           `yaml:"log_level,omitempty" json:"log_level,omitempty"` // CLI verbosity 1 (error) to 5 (trace)
	LogFormat         *string        `yaml:"log_format,omitempty" json:"log_format,omitempty"`
	AllowSymlinks     *bool          `yaml:"allow_symlinks,omitempty" json:"allow_symlinks,omitempty"`
	CreateBaseDir     *bool          `yaml:"create_base_dir,omitempty" json:"create_base_dir,omitempty"`
	EventQueueSize    *int           `yaml:"event_queue_size,omitempty" json:"event_queue_size,omitempty"`
	MaxContentBytes   *int64         `yaml:"max_content_bytes,omitempty" json:"max_content_bytes,omitempty"`
	ShutdownTimeout   *time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty"`
	ReadHeaderTimeout *time.Duration `yaml:"read_header_timeout,omitempty" json:"read_header_timeout,omitempty"`
	MetricsAddr       *string        `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		BaseDir:           DefaultBaseDir,
		ListenAddr:        DefaultListenAddr,
		Backend:           DefaultBackend,
		LogLvl:            DefaultLogLvl,
		LogFormat:         DefaultLogFormat,
		AllowSymlinks:     DefaultAllowSymlinks,
		CreateBaseDir:     DefaultCreateBaseDir,
		EventQueueSize:    DefaultEventQueueSize,
		MaxContentBytes:   DefaultMaxContentBytes,
		ShutdownTimeout:   DefaultShutdownTimeout,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		MetricsAddr:       DefaultMetricsAddr,
	}
}

// NewConfig returns the defaults with override applied. A nil override yields
// the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.BaseDir != nil {
		c.BaseDir = *override.BaseDir
	}
	if override.ListenAddr != nil {
		c.ListenAddr = *override.ListenAddr
	}
	if override.Backend != nil {
		c.Backend = strings.ToLower(*override.Backend)
	}
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.LogFormat != nil {
		c.LogFormat = strings.ToLower(*override.LogFormat)
	}
	if override.AllowSymlinks != nil {
		c.AllowSymlinks = *override.AllowSymlinks
	}
	if override.CreateBaseDir != nil {
		c.CreateBaseDir = *override.CreateBaseDir
	}
	if override.EventQueueSize != nil {
		c.EventQueueSize = *override.EventQueueSize
	}
	if override.MaxContentBytes != nil {
		c.MaxContentBytes = *override.MaxContentBytes
	}
	if override.ShutdownTimeout != nil {
		c.ShutdownTimeout = *override.ShutdownTimeout
	}
	if override.ReadHeaderTimeout != nil {
		c.ReadHeaderTimeout = *override.ReadHeaderTimeout
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
