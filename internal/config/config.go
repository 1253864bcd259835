package config

import (
	"time"
)

// Environments a run can report itself as.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// Config is the root application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Mapper    MapperConfig    `yaml:"mapper"`
	AWS       AWSConfig       `yaml:"aws"`
	ImportAPI ImportAPIConfig `yaml:"import_api"`
	Slack     SlackConfig     `yaml:"slack"`
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Environment string `yaml:"environment" env:"APP_ENVIRONMENT" env-default:"dev"`
}

// IsProd reports whether the run belongs to the production environment.
func (c AppConfig) IsProd() bool { return c.Environment == EnvProd }

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// WordPressConfig holds settings of the upstream WordPress REST API.
type WordPressConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"WORDPRESS_BASE_URL"    env-default:"https://admin.climatecasechart.com/wp-json/wp/v2"`
	PerPage    int           `yaml:"per_page"    env:"WORDPRESS_PER_PAGE"    env-default:"100"`
	Timeout    time.Duration `yaml:"timeout"     env:"WORDPRESS_TIMEOUT"     env-default:"10s"`
	MaxRetries int           `yaml:"max_retries" env:"WORDPRESS_MAX_RETRIES" env-default:"3"`
	RateLimit  float64       `yaml:"rate_limit"  env:"WORDPRESS_RATE_LIMIT"  env-default:"2"`
	RateBurst  int           `yaml:"rate_burst"  env:"WORDPRESS_RATE_BURST"  env-default:"10"`
}

// MapperConfig holds settings of a mapping run. Incremental is opt-in: a
// bool default of true could never be turned off from YAML.
type MapperConfig struct {
	OutputPath   string        `yaml:"output_path"    env:"MAPPER_OUTPUT_PATH"    env-default:"output.json"`
	AuditLogPath string        `yaml:"audit_log_path" env:"MAPPER_AUDIT_LOG_PATH" env-default:"failures.log"`
	Incremental  bool          `yaml:"incremental"    env:"MAPPER_INCREMENTAL"`
	Lookback     time.Duration `yaml:"lookback"       env:"MAPPER_LOOKBACK"       env-default:"48h"`
}

// AWSConfig holds S3 archive settings. An empty bucket disables archiving.
type AWSConfig struct {
	Region       string `yaml:"region"         env:"AWS_REGION"          env-default:"eu-west-1"`
	Bucket       string `yaml:"bucket"         env:"AWS_BUCKET"          env-default:"cpr-cache"`
	Prefix       string `yaml:"prefix"         env:"AWS_PREFIX"          env-default:"litigation"`
	Endpoint     string `yaml:"endpoint"       env:"AWS_ENDPOINT_URL"`
	UsePathStyle bool   `yaml:"use_path_style" env:"AWS_USE_PATH_STYLE"  env-default:"false"`
}

// ImportAPIConfig holds bulk-import API settings. An empty base URL disables
// uploads.
type ImportAPIConfig struct {
	BaseURL        string        `yaml:"base_url"         env:"IMPORT_API_BASE_URL"`
	Username       string        `yaml:"username"         env:"IMPORT_API_USERNAME"`
	Password       string        `yaml:"password"         env:"IMPORT_API_PASSWORD"`
	CorpusImportID string        `yaml:"corpus_import_id" env:"IMPORT_API_CORPUS_IMPORT_ID" env-default:"Academic.corpus.Litigation.n0000"`
	Timeout        time.Duration `yaml:"timeout"          env:"IMPORT_API_TIMEOUT"          env-default:"60s"`
}

// Enabled reports whether uploads are configured.
func (c ImportAPIConfig) Enabled() bool { return c.BaseURL != "" }

// SlackConfig holds the failure notification webhook.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" env:"SLACK_WEBHOOK_URL"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty DSN disables
// the run audit store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// MetricsConfig holds Prometheus Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `yaml:"job"             env:"METRICS_JOB"             env-default:"litigation_mapper"`
}
