package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
standardizer:
  input_format: smiles
  output_format: sdf
  concurrency: 4
  record_timeout: 2s
worker:
  request_topic: in
  result_topic: out
redis:
  enabled: true
  addr: "cache:6379"
kafka:
  brokers: ["k1:9092", "k2:9092"]
postgres:
  enabled: true
  host: db
  port: 5433
  db_name: results
log:
  level: debug
  format: console
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "smiles", cfg.Standardizer.InputFormat)
	assert.Equal(t, 4, cfg.Standardizer.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Standardizer.RecordTimeout)
	assert.Equal(t, "in", cfg.Worker.RequestTopic)
	assert.Equal(t, DefaultDLQTopic, cfg.Worker.DLQTopic)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "standardizer: ["))
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, "standardizer:\n  input_format: pdb\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standardizer.input_format")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MOLSTD_REDIS_ADDR", "env-cache:6380")
	t.Setenv("MOLSTD_WORKER_CONCURRENCY", "16")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 16, cfg.Worker.Concurrency)
}

func TestLoadFromEnv_DefaultsOnly(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultInputFormat, cfg.Standardizer.InputFormat)
	assert.Equal(t, DefaultRequestTopic, cfg.Worker.RequestTopic)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("MOLSTD_LOG_LEVEL", "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Worker.Concurrency = 3
	cfg.Redis.KeyPrefix = "x:"
	ApplyDefaults(cfg)

	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, "x:", cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultRedisTTL, cfg.Redis.DefaultTTL)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad output format", func(c *Config) { c.Standardizer.OutputFormat = "mol2" }, "standardizer.output_format"},
		{"zero concurrency", func(c *Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
		{"same topics", func(c *Config) { c.Worker.ResultTopic = c.Worker.RequestTopic }, "must differ"},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"bad offset reset", func(c *Config) { c.Kafka.AutoOffsetReset = "middle" }, "auto_offset_reset"},
		{"postgres bad port", func(c *Config) { c.Postgres.Enabled = true; c.Postgres.Port = 70000 }, "postgres.port"},
		{"postgres disabled ignores port", func(c *Config) { c.Postgres.Port = 70000 }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogConfig_Logging(t *testing.T) {
	lc := LogConfig{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}}
	got := lc.Logging()
	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, "console", got.Format)
	assert.Equal(t, []string{"stderr"}, got.OutputPaths)
}
