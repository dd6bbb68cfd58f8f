package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "SQLITE_PATH", "REDIS_URL",
		"AMQP_URL", "AMQP_QUEUE", "JWT_SECRET", "REFRESH_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"LOGIN_ATTEMPTS_PER_MINUTE", "IMPORT_MAX_BYTES", "ADMIN_USERNAME", "ADMIN_PASSWORD",
		configFileEnvVar, idemTTLSecondsEnvVar, idemTTLDurEnvVar, shutdownSecondsEnvVar, shutdownDurationEnvVar,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SQLitePath != defaultSQLitePath || cfg.DatabaseURL != "" {
		t.Fatalf("expected sqlite default, got %+v", cfg)
	}
	if cfg.JWTSecret != devJWTSecret || cfg.RefreshSecret != devRefreshSecret {
		t.Fatalf("expected development secrets")
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if cfg.LoginAttemptsPerMinute != defaultLoginAttempts || cfg.ImportMaxBytes != defaultImportMaxBytes {
		t.Fatalf("unexpected limits %+v", cfg)
	}
}

func TestLoadRequiresSecretsOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing JWT_SECRET error")
	}

	t.Setenv("JWT_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "b")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv(shutdownSecondsEnvVar, "3")
	t.Setenv(idemTTLDurEnvVar, "90s")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown period %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Second {
		t.Fatalf("unexpected idempotency ttl %s", cfg.IdempotencyTTL)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl %s", cfg.AccessTokenTTL)
	}

	t.Setenv(shutdownSecondsEnvVar, "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid shutdown error")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 9090\napp_name: FromFile\nimport_max_bytes: 1024\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configFileEnvVar, path)
	t.Setenv("APP_NAME", "FromEnv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.ImportMaxBytes != 1024 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.AppName != "FromEnv" {
		t.Fatalf("expected environment to override file, got %s", cfg.AppName)
	}
}
