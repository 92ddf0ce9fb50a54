// Package config defines the global configuration for the IPPON batch-report
// service. Configuration is loaded once at process initialization and is
// immutable thereafter. It follows 12-Factor principles: all values come from
// the environment (optionally seeded by a local .env file), and any missing
// required value or invalid format fails the process at startup.
package config

import (
	"time"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"ippon-report-batch"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	OpenAI   OpenAIConfig
	Batch    BatchConfig
}

// ServerConfig holds the health endpoint listener settings for the
// standalone runner deployment.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds PostgreSQL connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"ap-northeast-1"`

	// ReportNotificationQueue receives report-created messages consumed by
	// the email notification worker (outside this repository).
	ReportNotificationQueue string `envconfig:"SQS_REPORT_NOTIFICATIONS" validate:"omitempty,url"`

	// MetricNamespace is the CloudWatch namespace for batch cycle metrics.
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"IpponReportBatch"`

	// EndpointURL overrides the AWS endpoint for LocalStack. Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// OpenAIConfig holds the AI summarization backend settings. When APIKey is
// empty the report service persists reports without generated summaries.
type OpenAIConfig struct {
	APIKey  SecretString  `envconfig:"OPENAI_API_KEY"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL"`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"2m"`
}

// BatchConfig holds the batch orchestrator tunables. Timezone is the
// operational timezone all scheduling arithmetic is anchored to; the original
// deployment runs in Asia/Tokyo and there is no per-tenant override.
type BatchConfig struct {
	Timezone    string        `envconfig:"BATCH_TIMEZONE" default:"Asia/Tokyo"`
	CronSpec    string        `envconfig:"BATCH_CRON" default:"0 * * * *"`
	Concurrency int           `envconfig:"BATCH_CONCURRENCY" default:"5"`
	LockTTL     time.Duration `envconfig:"BATCH_LOCK_TTL" default:"15m"`
}
