package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/notify"
)

const (
	LocalSQLite = "sqlite"
	LocalMemory = "memory"

	RemoteNone   = "none"
	RemoteSheets = "sheets"
	RemoteMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port string

	// Local snapshot cache
	LocalBackend string
	SQLiteDBPath string

	// Remote document store
	RemoteBackend       string
	GoogleSpreadsheetID string
	GoogleSnapshotSheet string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Calendar and reminders
	Timezone        string
	ReminderEnabled bool
	ReminderTime    string

	// Derived-view cache
	CacheSize int
	CacheTTL  time.Duration

	// Worker
	SyncInterval time.Duration

	LogLevel        string
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LocalBackend: getEnv("LOCAL_BACKEND", LocalSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),

		RemoteBackend:       getEnv("REMOTE_BACKEND", RemoteNone),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSnapshotSheet: getEnv("GOOGLE_SNAPSHOT_SHEET", "Finanzas"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE_NAME", "finanzas"),
		AMQPQueue:    getEnv("AMQP_QUEUE_NAME", "sync_snapshot"),

		Timezone:        getEnv("TIMEZONE", "America/Santiago"),
		ReminderEnabled: getEnvBool("REMINDER_ENABLED", true),
		ReminderTime:    getEnv("REMINDER_TIME", notify.DefaultReminderTime),

		CacheSize: getEnvInt("CACHE_SIZE", 64),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", time.Minute),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// AMQPEnabled reports whether saves are synced through the broker
// instead of written to the remote store inline.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// Validate collects every problem and returns them as one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	localBackends := []string{LocalSQLite, LocalMemory}
	if !slices.Contains(localBackends, c.LocalBackend) {
		errors = append(errors, fmt.Sprintf("invalid local backend '%s': must be one of %v", c.LocalBackend, localBackends))
	}
	if c.LocalBackend == LocalSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	remoteBackends := []string{RemoteNone, RemoteSheets, RemoteMemory}
	if !slices.Contains(remoteBackends, c.RemoteBackend) {
		errors = append(errors, fmt.Sprintf("invalid remote backend '%s': must be one of %v", c.RemoteBackend, remoteBackends))
	}
	if c.RemoteBackend == RemoteSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSnapshotSheet == "" {
			errors = append(errors, "Google snapshot sheet name is required when using sheets backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		// The worker reads what the server wrote, so both need the same file.
		if c.LocalBackend != LocalSQLite {
			errors = append(errors, "AMQP sync requires the sqlite local backend")
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if _, err := notify.ParseClock(c.ReminderTime); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reminder time '%s': must be HH:MM", c.ReminderTime))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.SyncInterval < 0 || (c.SyncInterval > 0 && c.SyncInterval < time.Second) {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be 0 or at least 1 second", c.SyncInterval))
	}
	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
