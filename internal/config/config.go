package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string

	// Recurrence scheduler
	RecurringInterval       time.Duration
	RecurringBatchSize      int
	RecurringStatementAware bool

	// Event outbox relay
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int

	// Account cache
	AccountCacheTTL  time.Duration
	AccountCacheSize int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger.events"),

		RecurringInterval:       getEnvDuration("RECURRING_INTERVAL", time.Hour),
		RecurringBatchSize:      getEnvInt("RECURRING_BATCH_SIZE", 100),
		RecurringStatementAware: getEnvBool("RECURRING_STATEMENT_AWARE", false),

		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
		OutboxBatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 50),
		OutboxMaxRetries:   getEnvInt("OUTBOX_MAX_RETRIES", 5),

		AccountCacheTTL:  getEnvDuration("ACCOUNT_CACHE_TTL", 5*time.Minute),
		AccountCacheSize: getEnvInt("ACCOUNT_CACHE_SIZE", 512),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
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
	}

	if c.RecurringInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}
	errors = appendRange(errors, "recurring batch size", c.RecurringBatchSize, 1, 1000)

	if c.OutboxPollInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid outbox poll interval %v: must be at least 100ms", c.OutboxPollInterval))
	}
	errors = appendRange(errors, "outbox batch size", c.OutboxBatchSize, 1, 1000)
	errors = appendRange(errors, "outbox max retries", c.OutboxMaxRetries, 1, 100)

	if c.AccountCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid account cache TTL %v: must be positive", c.AccountCacheTTL))
	}
	errors = appendRange(errors, "account cache size", c.AccountCacheSize, 1, 100000)
	errors = appendRange(errors, "rate limit per minute", c.RateLimitPerMinute, 1, 100000)

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// PublishingEnabled reports whether ledger events are relayed to a broker.
func (c *Config) PublishingEnabled() bool {
	return c.AMQPURL != ""
}

func appendRange(errors []string, name string, v, lo, hi int) []string {
	if v < lo {
		return append(errors, fmt.Sprintf("invalid %s %d: must be at least %d", name, v, lo))
	}
	if v > hi {
		return append(errors, fmt.Sprintf("invalid %s %d: must be at most %d", name, v, hi))
	}
	return errors
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
