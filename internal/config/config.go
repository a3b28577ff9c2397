package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Ops      OpsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// UpstreamConfig points at the recipe platform REST service.
type UpstreamConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SessionConfig defines session and route-policy parameters.
type SessionConfig struct {
	CookieName          string
	CookieSecure        bool
	LoginTimeoutSeconds int
	PolicyPath          string
}

// PostgresConfig holds audit-store connection values. Empty DSN disables
// the audit trail.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the token store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// OpsConfig protects the operational endpoints. PasswordHash is a bcrypt
// hash; both fields empty leaves the endpoints open.
type OpsConfig struct {
	User         string
	PasswordHash string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "recipe-admin"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Upstream: UpstreamConfig{
			BaseURL:        getEnv("UPSTREAM_BASE_URL", "https://upskilling-egypt.com:3006/api/v1"),
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 20),
		},
		Session: SessionConfig{
			CookieName:          getEnv("SESSION_COOKIE_NAME", "recipe_admin_session"),
			CookieSecure:        getEnvAsBool("SESSION_COOKIE_SECURE", false),
			LoginTimeoutSeconds: getEnvAsInt("SESSION_LOGIN_TIMEOUT_SECONDS", 15),
			PolicyPath:          getEnv("SESSION_POLICY_PATH", ""),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ops: OpsConfig{
			User:         os.Getenv("OPS_BASIC_AUTH_USER"),
			PasswordHash: os.Getenv("OPS_BASIC_AUTH_PASSWORD_HASH"),
		},
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL must not be empty")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the upstream client timeout duration.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// LoginTimeout bounds the wait on an in-flight login attempt.
func (s SessionConfig) LoginTimeout() time.Duration {
	if s.LoginTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.LoginTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
