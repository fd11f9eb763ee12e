package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"SECRETARY_HTTP_PORT",
	"SECRETARY_SQLITE_PATH",
	"SECRETARY_SESSION_SECRET",
	"SECRETARY_SESSION_TTL",
	"SECRETARY_LOG_LEVEL",
	"SECRETARY_LOG_FILE",
	"SECRETARY_LOG_MAX_SIZE_MB",
	"SECRETARY_LOG_MAX_BACKUPS",
	"SECRETARY_LOG_MAX_AGE_DAYS",
	"SECRETARY_REMINDER_INTERVAL",
	"SECRETARY_REMINDER_CONCURRENCY",
	"SECRETARY_REMINDER_TIMEOUT",
	"SECRETARY_LLM_BASE_URL",
	"SECRETARY_LLM_API_KEY",
	"SECRETARY_LLM_MODEL",
	"SECRETARY_LLM_TIMEOUT",
	"SECRETARY_LLM_MAX_RETRIES",
	"SECRETARY_LLM_RPS",
	"SECRETARY_JAAS_APP_ID",
	"SECRETARY_JAAS_API_KEY_ID",
	"SECRETARY_JAAS_PRIVATE_KEY_PATH",
}

// clearEnv blanks every key; the loader treats empty values as unset.
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
		t.Setenv("SECRETARY_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "secretary.db" {
			t.Fatalf("unexpected default sqlite path: %q", cfg.SQLitePath)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret to be %q, got %q", secret, cfg.SessionSecret)
		}
		if cfg.Log.Level != slog.LevelInfo {
			t.Fatalf("expected info log level, got %s", cfg.Log.Level)
		}
		if cfg.Reminder.Interval != time.Hour || cfg.Reminder.Concurrency != 4 {
			t.Fatalf("unexpected reminder defaults: %+v", cfg.Reminder)
		}
		if cfg.LLM.Enabled() {
			t.Fatalf("expected LLM to be disabled by default")
		}
		if cfg.JaaS.Enabled() {
			t.Fatalf("expected JaaS to be disabled by default")
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: SECRETARY_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRETARY_SESSION_SECRET", "secret-value")
		t.Setenv("SECRETARY_HTTP_PORT", "9090")
		t.Setenv("SECRETARY_SQLITE_PATH", "/tmp/secretary.db")
		t.Setenv("SECRETARY_SESSION_TTL", "12h")
		t.Setenv("SECRETARY_LOG_LEVEL", "debug")
		t.Setenv("SECRETARY_REMINDER_INTERVAL", "0")
		t.Setenv("SECRETARY_REMINDER_CONCURRENCY", "8")
		t.Setenv("SECRETARY_LLM_BASE_URL", "https://llm.example.com/v1/")
		t.Setenv("SECRETARY_LLM_API_KEY", "sk-test")
		t.Setenv("SECRETARY_LLM_RPS", "0.5")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "/tmp/secretary.db" {
			t.Fatalf("unexpected sqlite path: %q", cfg.SQLitePath)
		}
		if cfg.Log.Level != slog.LevelDebug {
			t.Fatalf("expected debug log level, got %s", cfg.Log.Level)
		}
		if cfg.Reminder.Interval != 0 {
			t.Fatalf("expected reminder loop to be disabled, got %s", cfg.Reminder.Interval)
		}
		if cfg.Reminder.Concurrency != 8 {
			t.Fatalf("expected reminder concurrency 8, got %d", cfg.Reminder.Concurrency)
		}
		if cfg.LLM.BaseURL != "https://llm.example.com/v1" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.LLM.BaseURL)
		}
		if cfg.LLM.RequestsPerSecond != 0.5 {
			t.Fatalf("expected 0.5 rps, got %v", cfg.LLM.RequestsPerSecond)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRETARY_SESSION_SECRET", "secret-value")
		t.Setenv("SECRETARY_HTTP_PORT", "eighty")
		t.Setenv("SECRETARY_SESSION_TTL", "-1h")
		t.Setenv("SECRETARY_LOG_LEVEL", "loud")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"SECRETARY_HTTP_PORT", "SECRETARY_SESSION_TTL", "SECRETARY_LOG_LEVEL"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to mention %s, got %q", key, err.Error())
			}
		}
	})

	t.Run("requires credentials for enabled integrations", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRETARY_SESSION_SECRET", "secret-value")
		t.Setenv("SECRETARY_LLM_BASE_URL", "https://llm.example.com")
		t.Setenv("SECRETARY_JAAS_APP_ID", "vpaas-magic-cookie-123")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for incomplete integration settings")
		}
		for _, key := range []string{"SECRETARY_LLM_API_KEY", "SECRETARY_JAAS_API_KEY_ID", "SECRETARY_JAAS_PRIVATE_KEY_PATH"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to mention %s, got %q", key, err.Error())
			}
		}
	})
}
