package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	AssignmentCacheTTL time.Duration `mapstructure:"ASSIGNMENT_CACHE_TTL"`
	AuthIssuer         string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL        string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience       string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey     string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	QueueWindowDays    int           `mapstructure:"QUEUE_WINDOW_DAYS"`
	FindingsLimit      int           `mapstructure:"FINDINGS_LIMIT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "ASSIGNMENT_CACHE_TTL",
	"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"QUEUE_WINDOW_DAYS", "FINDINGS_LIMIT",
}

// Load reads configuration from the environment, falling back to a .env
// file in the working directory when one exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ASSIGNMENT_CACHE_TTL", "60s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("QUEUE_WINDOW_DAYS", 30)
	v.SetDefault("FINDINGS_LIMIT", 3)

	// Bind explicitly so Unmarshal sees variables without a default.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a token issuer or signing key must be configured, since the development
// identity middleware is never wired there.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.Env, validation.Required, validation.In("development", "staging", "production")),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.DBMaxConns, validation.Min(int32(1))),
		validation.Field(&c.DBMinConns, validation.Min(int32(0)), validation.Max(c.DBMaxConns)),
		validation.Field(&c.AssignmentCacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.AuthJWKSURL, is.URL),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&c.RateLimitBurst, validation.Min(0)),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.QueueWindowDays, validation.Required, validation.Min(1)),
		validation.Field(&c.FindingsLimit, validation.Required, validation.Min(1), validation.Max(3)),
	)
	if err != nil {
		return err
	}
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	return nil
}
