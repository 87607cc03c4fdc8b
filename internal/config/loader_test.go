package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"CHECKCLASS_HTTP_PORT",
	"CHECKCLASS_DB_DRIVER",
	"CHECKCLASS_SQLITE_PATH",
	"CHECKCLASS_POSTGRES_DSN",
	"CHECKCLASS_TOKEN_SECRET",
	"CHECKCLASS_TOKEN_TTL",
	"CHECKCLASS_TIMETABLE_FILE",
	"CHECKCLASS_LOG_LEVEL",
	"CHECKCLASS_LOG_FORMAT",
}

// clearEnv blanks every key for the duration of the test. t.Setenv restores
// the previous value on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		const secret = "super-secret"
		t.Setenv("CHECKCLASS_TOKEN_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DBDriver != DriverSQLite {
			t.Fatalf("expected default driver sqlite, got %q", cfg.DBDriver)
		}
		if cfg.SQLitePath != "checkclass.db" {
			t.Fatalf("unexpected default sqlite path: %q", cfg.SQLitePath)
		}
		if cfg.TokenSecret != secret {
			t.Fatalf("expected token secret to be %q, got %q", secret, cfg.TokenSecret)
		}
		if cfg.TokenTTL != 8*time.Hour {
			t.Fatalf("expected default TTL 8h, got %s", cfg.TokenTTL)
		}
		if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "json" {
			t.Fatalf("unexpected log defaults: %s %s", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.Addr() != ":8080" {
			t.Fatalf("unexpected addr %q", cfg.Addr())
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "variabili d'ambiente obbligatorie mancanti: CHECKCLASS_TOKEN_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("secret can be waived", func(t *testing.T) {
		clearEnv(t)

		if _, err := Load(WithoutTokenSecret()); err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHECKCLASS_DB_DRIVER", "postgres")
		t.Setenv("CHECKCLASS_TOKEN_SECRET", "s")

		_, err := Load()
		expected := "variabili d'ambiente obbligatorie mancanti: CHECKCLASS_POSTGRES_DSN"
		if err == nil || err.Error() != expected {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHECKCLASS_TOKEN_SECRET", "s")
		t.Setenv("CHECKCLASS_HTTP_PORT", "zero")
		t.Setenv("CHECKCLASS_DB_DRIVER", "oracle")
		t.Setenv("CHECKCLASS_TOKEN_TTL", "-1h")
		t.Setenv("CHECKCLASS_LOG_LEVEL", "loud")
		t.Setenv("CHECKCLASS_LOG_FORMAT", "xml")

		_, err := Load()
		expected := "valori non validi nelle variabili d'ambiente: CHECKCLASS_HTTP_PORT, CHECKCLASS_DB_DRIVER, CHECKCLASS_TOKEN_TTL, CHECKCLASS_LOG_LEVEL, CHECKCLASS_LOG_FORMAT"
		if err == nil || err.Error() != expected {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHECKCLASS_TOKEN_SECRET", "secret-value")
		t.Setenv("CHECKCLASS_HTTP_PORT", "9090")
		t.Setenv("CHECKCLASS_DB_DRIVER", "Memory")
		t.Setenv("CHECKCLASS_TOKEN_TTL", "24h")
		t.Setenv("CHECKCLASS_LOG_LEVEL", "debug")
		t.Setenv("CHECKCLASS_LOG_FORMAT", "text")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.TokenTTL != 24*time.Hour {
			t.Fatalf("expected token TTL 24h, got %s", cfg.TokenTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.DBDriver != DriverMemory {
			t.Fatalf("expected memory driver, got %q", cfg.DBDriver)
		}
		if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
			t.Fatalf("unexpected log settings: %s %s", cfg.LogLevel, cfg.LogFormat)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "CHECKCLASS_TOKEN_SECRET=from-file\nCHECKCLASS_HTTP_PORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Already set variables take precedence over the file.
	t.Setenv("CHECKCLASS_HTTP_PORT", "7100")
	// godotenv only fills variables that are absent, so drop the blank one.
	os.Unsetenv("CHECKCLASS_TOKEN_SECRET")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TokenSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.TokenSecret)
	}
	if cfg.HTTPPort != 7100 {
		t.Fatalf("expected environment to win, got %d", cfg.HTTPPort)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestTimetable(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		cfg := Config{}
		set, err := cfg.Timetable()
		if err != nil {
			t.Fatalf("Timetable: %v", err)
		}
		if set.Len() == 0 {
			t.Fatal("expected default slots")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := Config{TimetableFile: filepath.Join(t.TempDir(), "nope.yaml")}
		if _, err := cfg.Timetable(); err == nil {
			t.Fatal("expected error for missing timetable")
		}
	})
}
