// Package config provides application configuration loaded from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	App     AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// StorageConfig selects where the document slot is persisted.
type StorageConfig struct {
	Driver     string // "sqlite" or "postgres"
	SQLitePath string
	DSN        string // postgres DSN, key=value or URL form
	StateKey   string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev              bool
	PreviewDelayMS   int
	PersistOnHydrate bool
}

// PreviewDelay returns the preview quiescence window.
func (a AppConfig) PreviewDelay() time.Duration {
	return time.Duration(a.PreviewDelayMS) * time.Millisecond
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "devis.db"),
			DSN:        getEnv("DATABASE_DSN", ""),
			StateKey:   getEnv("STATE_KEY", "invoiceData"),
		},
		App: AppConfig{
			Dev:              getEnvBool("DEV", false),
			PreviewDelayMS:   getEnvInt("PREVIEW_DELAY_MS", 1000),
			PersistOnHydrate: getEnvBool("PERSIST_ON_HYDRATE", false),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
