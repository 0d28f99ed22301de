package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLSTD"

// envKeys lists every leaf key so AutomaticEnv can resolve it even when the
// YAML file does not mention it.  viper only consults the environment for
// keys it already knows about during Unmarshal.
var envKeys = []string{
	"standardizer.input_format", "standardizer.output_format", "standardizer.keep_going",
	"standardizer.concurrency", "standardizer.record_timeout",
	"worker.concurrency", "worker.record_timeout", "worker.request_topic", "worker.result_topic",
	"worker.dlq_topic", "worker.max_retries", "worker.retry_backoff", "worker.health_addr",
	"worker.shutdown_timeout",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.default_ttl", "redis.key_prefix",
	"kafka.brokers", "kafka.group_id", "kafka.auto_offset_reset", "kafka.batch_size",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.region", "minio.use_ssl",
	"postgres.enabled", "postgres.host", "postgres.port", "postgres.user", "postgres.password",
	"postgres.db_name", "postgres.ssl_mode", "postgres.max_conns",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"log.level", "log.format",
}

// newViper builds a pre-configured Viper instance: YAML file type, MOLSTD_ env
// prefix, automatic env binding, and a "." → "_" key replacer so that
// "redis.addr" resolves to "MOLSTD_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges any MOLSTD_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  An empty configPath is equivalent to LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLSTD_* environment variables.
//
//	MOLSTD_<SECTION>_<FIELD>   e.g.  MOLSTD_REDIS_ADDR, MOLSTD_WORKER_CONCURRENCY
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes on disk.  Only the log level is safe to apply at
// runtime; callers ignore the rest.  A change that fails to validate is
// dropped.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on any error.  For use in main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
