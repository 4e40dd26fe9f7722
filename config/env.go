package config

import (
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key, e.g. WEBFILES_BASE_DIR.
const EnvPrefix = "WEBFILES"

// LoadConfigOverrideEnv reads overrides from WEBFILES_* environment variables.
// Keys match the yaml names in [ConfigOverride]; unset or empty variables are
// left nil.
func LoadConfigOverrideEnv() *ConfigOverride {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return &ConfigOverride{
		BaseDir:           envValue(v, "base_dir", v.GetString),
		ListenAddr:        envValue(v, "listen_addr", v.GetString),
		Backend:           envValue(v, "backend", v.GetString),
		LogLvl:            envValue(v, "log_level", v.GetInt),
		LogFormat:         envValue(v, "log_format", v.GetString),
		AllowSymlinks:     envValue(v, "allow_symlinks", v.GetBool),
		CreateBaseDir:     envValue(v, "create_base_dir", v.GetBool),
		EventQueueSize:    envValue(v, "event_queue_size", v.GetInt),
		MaxContentBytes:   envValue(v, "max_content_bytes", v.GetInt64),
		ShutdownTimeout:   envValue(v, "shutdown_timeout", v.GetDuration),
		ReadHeaderTimeout: envValue(v, "read_header_timeout", v.GetDuration),
		MetricsAddr:       envValue(v, "metrics_addr", v.GetString),
	}
}

func envValue[T any](v *viper.Viper, key string, get func(string) T) *T {
	if !v.IsSet(key) {
		return nil
	}
	val := get(key)
	return &val
}
