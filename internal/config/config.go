package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/mmaazkhanhere/learnpath/pkg/config"
	"github.com/mmaazkhanhere/learnpath/pkg/database"
	"github.com/mmaazkhanhere/learnpath/pkg/middleware"
	"github.com/mmaazkhanhere/learnpath/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "learnpath"

// DevSecret is the signing secret used when SECRET_KEY is not set. It is only
// accepted in development.
const DevSecret = "change-this-to-a-secure-secret"

// MinTokenTTL is the shortest configurable access token lifetime.
const MinTokenTTL = 2 * time.Minute

// Config holds all configuration for the learnpath API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort  int    `env:"HTTP_PORT" envDefault:"8000"`
	StaticDir string `env:"STATIC_DIR"`

	// PostgreSQL. DATABASE_URL wins over the individual fields.
	DatabaseURL           string `env:"DATABASE_URL"`
	PostgresHost          string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort          int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser          string `env:"POSTGRES_USER" envDefault:"learnpath"`
	PostgresPass          string `env:"POSTGRES_PASSWORD" envDefault:"learnpath"`
	PostgresDB            string `env:"POSTGRES_DB" envDefault:"learnpath"`
	PostgresSSL           string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns            int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int    `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int    `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisURL      string        `env:"REDIS_URL"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SkillCacheTTL time.Duration `env:"SKILL_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled      bool     `env:"EVENTS_ENABLED" envDefault:"false"`
	NotifierEnabled    bool     `env:"NOTIFIER_ENABLED" envDefault:"false"`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"learnpath-notifier"`

	// Notifications are posted here when set and logged otherwise.
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`

	// Tokens and passwords
	SecretKey                string `env:"SECRET_KEY" envDefault:"change-this-to-a-secure-secret"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"15"`
	BcryptCost               int    `env:"BCRYPT_COST" envDefault:"12"`

	// Registration. Admin accounts come from the bootstrap pair unless
	// self-registration as admin is allowed.
	AllowAdminRegistration bool   `env:"ALLOW_ADMIN_REGISTRATION" envDefault:"false"`
	AdminEmail             string `env:"ADMIN_EMAIL"`
	AdminPassword          string `env:"ADMIN_PASSWORD"`

	// Per-IP limit on the token, login and register endpoints. Zero RPS
	// disables it.
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	TrustProxyHeaders  bool    `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// pprof is mounted only when at least one CIDR is listed.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load learnpath config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the production secret requirements.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.TokenTTL() < MinTokenTTL {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be at least %d, got %d",
			int(MinTokenTTL/time.Minute), c.AccessTokenExpireMinutes)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}
	if c.AuthRateLimitRPS < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS must not be negative, got %v", c.AuthRateLimitRPS)
	}
	if c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_BURST must be at least 1, got %d", c.AuthRateLimitBurst)
	}
	if c.RedisEnabled && c.SkillCacheTTL <= 0 {
		return fmt.Errorf("SKILL_CACHE_TTL must be positive, got %s", c.SkillCacheTTL)
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if !c.IsDevelopment() {
		if c.SecretKey == DevSecret {
			return fmt.Errorf("SECRET_KEY must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters long, got %d", len(c.SecretKey))
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TokenTTL is the default access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		URL:             c.DatabaseURL,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// AuthRateLimit is the limiter applied to the /api/v1/auth routes.
func (c *Config) AuthRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:               c.AuthRateLimitRPS,
		Burst:             c.AuthRateLimitBurst,
		TrustProxyHeaders: c.TrustProxyHeaders,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		URL:      c.RedisURL,
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Tracing(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		Insecure:       c.OTELInsecure,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}
