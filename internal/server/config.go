// Package server provides configuration helpers that define runtime defaults,
// environment overrides, and validation for the hxchat service.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration settings.
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	LogFile        string
	WebDir         string
	AllowedOrigins []string
	MaxMessageSize int64
	// AddDelay simulates a slow backend on POST /add.
	AddDelay time.Duration
	// ChatHistoryLimit caps the chat history; 0 keeps every message.
	ChatHistoryLimit int
	ShutdownTimeout  time.Duration
}

const (
	defaultPort            = ":3000"
	defaultEnv             = "development"
	defaultLogLevel        = "info"
	defaultMaxMessageSize  = 4096
	defaultAddDelay        = 500 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
)

func defaultConfig() Config {
	return Config{
		Port:            defaultPort,
		Env:             defaultEnv,
		LogLevel:        defaultLogLevel,
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  defaultMaxMessageSize,
		AddDelay:        defaultAddDelay,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.AddDelay < 0 {
		cfg.AddDelay = 0
	}

	if cfg.ChatHistoryLimit < 0 {
		cfg.ChatHistoryLimit = 0
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// IsDevelopment returns true unless Env is "production".
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set or invalid.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = parsePort(port)
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.WebDir = os.Getenv("WEB_DIR")

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if delay := os.Getenv("ADD_DELAY_MS"); delay != "" {
		cfg.AddDelay = parseMillis(delay, cfg.AddDelay)
	}

	if limit := os.Getenv("CHAT_HISTORY_LIMIT"); limit != "" {
		cfg.ChatHistoryLimit = parseNonNegativeInt(limit, cfg.ChatHistoryLimit)
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	return &cfg
}

// parsePort accepts both "3000" and ":3000".
func parsePort(value string) string {
	value = strings.TrimSpace(value)
	if _, err := strconv.Atoi(value); err == nil {
		return ":" + value
	}
	return value
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseNonNegativeInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
		return parsed
	}
	return defaultValue
}

func parseMillis(value string, defaultValue time.Duration) time.Duration {
	if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
