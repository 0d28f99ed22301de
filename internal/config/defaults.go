package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultInputFormat   = "sdf"
	DefaultOutputFormat  = "sdf"
	DefaultConcurrency   = 8
	DefaultRecordTimeout = 5 * time.Second

	DefaultRequestTopic = "molecule.standardize.request"
	DefaultResultTopic  = "molecule.standardize.result"
	DefaultDLQTopic     = "molecule.standardize.dlq"
	DefaultHealthAddr   = ":8081"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 24 * time.Hour
	DefaultRedisKeyPrefix = "molstd:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "molstd-worker"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "molstd"
	DefaultDBMaxConns = 10

	DefaultMetricsNamespace = "molstd"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Standardizer ──────────────────────────────────────────────────────────
	if cfg.Standardizer.InputFormat == "" {
		cfg.Standardizer.InputFormat = DefaultInputFormat
	}
	if cfg.Standardizer.OutputFormat == "" {
		cfg.Standardizer.OutputFormat = DefaultOutputFormat
	}
	if cfg.Standardizer.Concurrency == 0 {
		cfg.Standardizer.Concurrency = DefaultConcurrency
	}
	if cfg.Standardizer.RecordTimeout == 0 {
		cfg.Standardizer.RecordTimeout = DefaultRecordTimeout
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultConcurrency
	}
	if cfg.Worker.RecordTimeout == 0 {
		cfg.Worker.RecordTimeout = DefaultRecordTimeout
	}
	if cfg.Worker.RequestTopic == "" {
		cfg.Worker.RequestTopic = DefaultRequestTopic
	}
	if cfg.Worker.ResultTopic == "" {
		cfg.Worker.ResultTopic = DefaultResultTopic
	}
	if cfg.Worker.DLQTopic == "" {
		cfg.Worker.DLQTopic = DefaultDLQTopic
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Worker.HealthAddr == "" {
		cfg.Worker.HealthAddr = DefaultHealthAddr
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = 15 * time.Second
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	// DB 0 is both a valid explicit value and the default.

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultDBHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultDBPort
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultDBName
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = DefaultDBMaxConns
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
