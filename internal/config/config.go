package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAppName         = "ConsultaClientes"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultSQLitePath      = "local.db"
	defaultAMQPQueue       = "consulta_events"
	defaultAdminUsername   = "admin"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultLoginAttempts   = 5
	defaultImportMaxBytes  = 32 << 20
	devJWTSecret           = "dev-access-secret"
	devRefreshSecret       = "dev-refresh-secret"
	configFileEnvVar       = "CONFIG_FILE"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// DatabaseURL selects postgres; when empty the sqlite file at SQLitePath is used.
	DatabaseURL string
	SQLitePath  string
	RedisURL    string
	AMQPURL     string
	AMQPQueue   string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ShutdownPeriod         time.Duration
	IdempotencyTTL         time.Duration
	LoginAttemptsPerMinute int
	ImportMaxBytes         int

	AdminUsername string
	AdminPassword string
}

// Load reads configuration in increasing priority: built-in defaults, the
// YAML file named by CONFIG_FILE, a .env file in the working directory and
// the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	src, err := newSource(os.Getenv(configFileEnvVar))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:         src.get("APP_NAME", defaultAppName),
		AppEnv:          src.get("APP_ENV", defaultAppEnv),
		Port:            src.get("PORT", defaultPort),
		LogLevel:        strings.ToLower(src.get("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     src.get("DATABASE_URL", ""),
		SQLitePath:      src.get("SQLITE_PATH", defaultSQLitePath),
		RedisURL:        src.get("REDIS_URL", ""),
		AMQPURL:         src.get("AMQP_URL", ""),
		AMQPQueue:       src.get("AMQP_QUEUE", defaultAMQPQueue),
		JWTSecret:       src.get("JWT_SECRET", ""),
		RefreshSecret:   src.get("REFRESH_SECRET", ""),
		AdminUsername:   src.get("ADMIN_USERNAME", defaultAdminUsername),
		AdminPassword:   src.get("ADMIN_PASSWORD", ""),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
	}

	if cfg.ShutdownPeriod, err = src.seconds(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = src.seconds(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = src.duration("ACCESS_TOKEN_TTL", defaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = src.duration("REFRESH_TOKEN_TTL", defaultRefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.LoginAttemptsPerMinute, err = src.integer("LOGIN_ATTEMPTS_PER_MINUTE", defaultLoginAttempts); err != nil {
		return Config{}, err
	}
	if cfg.ImportMaxBytes, err = src.integer("IMPORT_MAX_BYTES", defaultImportMaxBytes); err != nil {
		return Config{}, err
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = devRefreshSecret
		}
	} else {
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RefreshSecret == "" {
			return Config{}, fmt.Errorf("REFRESH_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether APP_ENV names a local environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	src := source{file: map[string]string{}}
	if path == "" {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read %s: %w", configFileEnvVar, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		src.file[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return src, nil
}

func (s source) get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := s.file[key]; value != "" {
		return value
	}
	return fallback
}

// seconds reads secondsKey as a whole number of seconds, or durationKey as a
// Go duration string.
func (s source) seconds(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := s.get(secondsKey, ""); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return s.duration(durationKey, fallback)
}

func (s source) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func (s source) integer(key string, fallback int) (int, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
