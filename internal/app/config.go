package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// PGDSN is optional; without it the demo school is served from memory.
	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"10"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"learnova_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	TenantBaseDomain    string        `envconfig:"TENANT_BASE_DOMAIN" default:"learnova.app"`
	TenantSystemLabel   string        `envconfig:"TENANT_SYSTEM_LABEL" default:"admin"`
	TenantDevHosts      []string      `envconfig:"TENANT_DEV_HOSTS"`
	TenantLookupTimeout time.Duration `envconfig:"TENANT_LOOKUP_TIMEOUT" default:"3s"`
	TenantCacheTTL      time.Duration `envconfig:"TENANT_CACHE_TTL" default:"30m"`

	BadgesEnabled bool `envconfig:"BADGES_ENABLED" default:"true"`

	WarmupSchedule string `envconfig:"TENANT_WARMUP_SCHEDULE" default:"@every 15m"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.TenantLookupTimeout <= 0 {
		return nil, errors.New("tenant lookup timeout must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
