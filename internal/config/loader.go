package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the secretary service.
type Config struct {
	HTTPPort      int
	SQLitePath    string
	SessionSecret string
	SessionTTL    time.Duration

	Log      LogConfig
	Reminder ReminderConfig
	LLM      LLMConfig
	JaaS     JaaSConfig
}

// LogConfig controls log level and the optional rotating log file.
type LogConfig struct {
	Level      slog.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ReminderConfig tunes the reminder sweep.
type ReminderConfig struct {
	// Interval between scheduled sweeps. Zero disables the background loop.
	Interval    time.Duration
	Concurrency int
	Timeout     time.Duration
}

// LLMConfig addresses an OpenAI compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Enabled reports whether an LLM endpoint was configured.
func (c LLMConfig) Enabled() bool {
	return c.BaseURL != ""
}

// JaaSConfig holds the 8x8 Jitsi-as-a-Service credentials.
type JaaSConfig struct {
	AppID          string
	APIKeyID       string
	PrivateKeyPath string
}

// Enabled reports whether video conferencing was configured.
func (c JaaSConfig) Enabled() bool {
	return c.AppID != ""
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or malformed key is
// collected so a single error names all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLitePath: "secretary.db",
		SessionTTL: 24 * time.Hour,
		Log: LogConfig{
			Level:      slog.LevelInfo,
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Reminder: ReminderConfig{
			Interval:    time.Hour,
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		LLM: LLMConfig{
			Model:             "gpt-4o-mini",
			Timeout:           20 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 2,
		},
	}

	l := &loader{}

	l.positiveInt("SECRETARY_HTTP_PORT", &cfg.HTTPPort)
	l.str("SECRETARY_SQLITE_PATH", &cfg.SQLitePath)
	if secret := env("SECRETARY_SESSION_SECRET"); secret == "" {
		l.missing = append(l.missing, "SECRETARY_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}
	l.positiveDuration("SECRETARY_SESSION_TTL", &cfg.SessionTTL)

	if level := env("SECRETARY_LOG_LEVEL"); level != "" {
		if err := cfg.Log.Level.UnmarshalText([]byte(level)); err != nil {
			l.invalid = append(l.invalid, "SECRETARY_LOG_LEVEL")
		}
	}
	l.str("SECRETARY_LOG_FILE", &cfg.Log.File)
	l.positiveInt("SECRETARY_LOG_MAX_SIZE_MB", &cfg.Log.MaxSizeMB)
	l.nonNegativeInt("SECRETARY_LOG_MAX_BACKUPS", &cfg.Log.MaxBackups)
	l.nonNegativeInt("SECRETARY_LOG_MAX_AGE_DAYS", &cfg.Log.MaxAgeDays)

	if raw := env("SECRETARY_REMINDER_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval < 0 {
			l.invalid = append(l.invalid, "SECRETARY_REMINDER_INTERVAL")
		} else {
			cfg.Reminder.Interval = interval
		}
	}
	l.positiveInt("SECRETARY_REMINDER_CONCURRENCY", &cfg.Reminder.Concurrency)
	l.positiveDuration("SECRETARY_REMINDER_TIMEOUT", &cfg.Reminder.Timeout)

	l.str("SECRETARY_LLM_BASE_URL", &cfg.LLM.BaseURL)
	cfg.LLM.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")
	l.str("SECRETARY_LLM_API_KEY", &cfg.LLM.APIKey)
	l.str("SECRETARY_LLM_MODEL", &cfg.LLM.Model)
	l.positiveDuration("SECRETARY_LLM_TIMEOUT", &cfg.LLM.Timeout)
	l.nonNegativeInt("SECRETARY_LLM_MAX_RETRIES", &cfg.LLM.MaxRetries)
	if raw := env("SECRETARY_LLM_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			l.invalid = append(l.invalid, "SECRETARY_LLM_RPS")
		} else {
			cfg.LLM.RequestsPerSecond = rps
		}
	}
	if cfg.LLM.Enabled() && cfg.LLM.APIKey == "" {
		l.missing = append(l.missing, "SECRETARY_LLM_API_KEY")
	}

	l.str("SECRETARY_JAAS_APP_ID", &cfg.JaaS.AppID)
	l.str("SECRETARY_JAAS_API_KEY_ID", &cfg.JaaS.APIKeyID)
	l.str("SECRETARY_JAAS_PRIVATE_KEY_PATH", &cfg.JaaS.PrivateKeyPath)
	if cfg.JaaS.Enabled() {
		if cfg.JaaS.APIKeyID == "" {
			l.missing = append(l.missing, "SECRETARY_JAAS_API_KEY_ID")
		}
		if cfg.JaaS.PrivateKeyPath == "" {
			l.missing = append(l.missing, "SECRETARY_JAAS_PRIVATE_KEY_PATH")
		}
	}

	if len(l.missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(l.invalid, ", "))
	}

	return cfg, nil
}

type loader struct {
	missing []string
	invalid []string
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (l *loader) str(key string, dst *string) {
	if value := env(key); value != "" {
		*dst = value
	}
}

func (l *loader) positiveInt(key string, dst *int) {
	raw := env(key)
	if raw == "" {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = value
}

func (l *loader) nonNegativeInt(key string, dst *int) {
	raw := env(key)
	if raw == "" {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = value
}

func (l *loader) positiveDuration(key string, dst *time.Duration) {
	raw := env(key)
	if raw == "" {
		return
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = value
}
