package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
}

func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	cfg := NewConfig(override)

	expCfg := &Config{
		BaseDir:           *override.BaseDir,
		ListenAddr:        *override.ListenAddr,
		Backend:           MemoryBackend,
		LogLvl:            util.TraceLevel,
		LogFormat:         util.JSONFormat,
		AllowSymlinks:     *override.AllowSymlinks,
		CreateBaseDir:     *override.CreateBaseDir,
		EventQueueSize:    *override.EventQueueSize,
		MaxContentBytes:   *override.MaxContentBytes,
		ShutdownTimeout:   *override.ShutdownTimeout,
		ReadHeaderTimeout: *override.ReadHeaderTimeout,
		MetricsAddr:       *override.MetricsAddr,
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", 1, util.ErrorLevel},
		{"verbose_2_warn", 2, util.WarnLevel},
		{"verbose_3_info", 3, util.InfoLevel},
		{"verbose_4_debug", 4, util.DebugLevel},
		{"verbose_5_trace", 5, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},     // clamped to 1
		{"verbose_100_clamped_to_5", 100, util.TraceLevel}, // clamped to 5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override := &ConfigOverride{
				LogLvl: &tt.verboseValue,
			}

			cfg := NewConfig(override)

			assert.Equal(t, tt.expectedLevel, cfg.LogLvl,
				"CLI verbose %d should map to util.LogLevel %v", tt.verboseValue, tt.expectedLevel)
		})
	}
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{
		BaseDir:        util.Pointer("/srv/files"),
		EventQueueSize: util.Pointer(DefaultEventQueueSize + 1),
	}
	cfg := NewConfig(override)

	expCfg := createDefaultCfg()
	expCfg.BaseDir = "/srv/files"
	expCfg.EventQueueSize = DefaultEventQueueSize + 1

	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	type tc struct {
		ext   string
		build func() (*ConfigOverride, []byte)
	}

	cases := []tc{
		{
			ext: ".yaml",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := yaml.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
		{
			ext: ".yml",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := yaml.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
		{
			ext: ".json",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := json.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
	}

	for _, c := range cases {
		name := "valid" + c.ext
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			override, data := c.build()
			dir := t.TempDir()
			path := filepath.Join(dir, "override"+c.ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestLoadConfigOverrideFile_HandWrittenYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "webfiles.yaml")
	data := "base_dir: /var/lib/webfiles\nlisten_addr: 0.0.0.0:8080\nshutdown_timeout: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/webfiles", cfg.BaseDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultBackend, cfg.Backend)
}

// TestLoadConfigOverrideFile_NonExistentFile tests error handling
// when trying to load a file that doesn't exist.
func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

// TestLoadConfigOverrideFile_UnsupportedExtension tests error handling
// for file extensions that aren't supported (.txt, .xml, etc).
func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: x"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestNewConfigFromFile_FileError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := NewConfigFromFile(path)
	require.Error(t, err)
}

// Not parallel: t.Setenv.
func TestLoadConfigOverrideEnv(t *testing.T) {
	t.Setenv("WEBFILES_BASE_DIR", "/tmp/sandbox")
	t.Setenv("WEBFILES_LOG_LEVEL", "4")
	t.Setenv("WEBFILES_ALLOW_SYMLINKS", "true")
	t.Setenv("WEBFILES_SHUTDOWN_TIMEOUT", "2s")

	override := LoadConfigOverrideEnv()

	require.NotNil(t, override.BaseDir)
	assert.Equal(t, "/tmp/sandbox", *override.BaseDir)
	require.NotNil(t, override.LogLvl)
	assert.Equal(t, DebugVerbose, *override.LogLvl)
	require.NotNil(t, override.AllowSymlinks)
	assert.True(t, *override.AllowSymlinks)
	require.NotNil(t, override.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, *override.ShutdownTimeout)

	assert.Nil(t, override.ListenAddr, "unset variables must stay nil")
	assert.Nil(t, override.MetricsAddr, "unset variables must stay nil")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(NewDefaultConfig()))
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.Backend = "s3"
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Backend")
	})
	t.Run("empty base dir", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.BaseDir = ""
		require.Error(t, Validate(cfg))
	})
	t.Run("bad listen addr", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.ListenAddr = "localhost"
		require.Error(t, Validate(cfg))
	})
	t.Run("metrics on main listener", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.MetricsAddr = cfg.ListenAddr
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MetricsAddr")
	})
}

func createDefaultCfg() *Config {
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

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	return &ConfigOverride{
		BaseDir:           util.Pointer("/srv/sandbox"),
		ListenAddr:        util.Pointer("0.0.0.0:9000"),
		Backend:           util.Pointer(MemoryBackend),
		LogLvl:            util.Pointer(TraceVerbose),
		LogFormat:         util.Pointer(util.JSONFormat),
		AllowSymlinks:     util.Pointer(!DefaultAllowSymlinks),
		CreateBaseDir:     util.Pointer(!DefaultCreateBaseDir),
		EventQueueSize:    util.Pointer(DefaultEventQueueSize + 1),
		MaxContentBytes:   util.Pointer(int64(DefaultMaxContentBytes + 1)),
		ShutdownTimeout:   util.Pointer(DefaultShutdownTimeout + time.Second),
		ReadHeaderTimeout: util.Pointer(DefaultReadHeaderTimeout + time.Second),
		MetricsAddr:       util.Pointer("127.0.0.1:9100"),
	}
}
