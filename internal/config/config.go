package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath      string
	ReportsDir  string
	SourcesPath string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Analyzer settings
	GeminiAPIKey string
	GeminiModel  string

	// Cycle settings
	CheckInterval  time.Duration
	NotifyInterval time.Duration
	HarvestLimit   int

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:         DefaultDBPath,
		ReportsDir:     DefaultReportsDir,
		SourcesPath:    DefaultSourcesPath,
		ServerHost:     DefaultServerHost,
		ServerPort:     DefaultServerPort,
		APIKey:         GetEnvString("PATCHWATCH_API_KEY", ""),
		GeminiAPIKey:   GetEnvString("GEMINI_API_KEY", ""),
		GeminiModel:    GetEnvString("GEMINI_MODEL", DefaultGeminiModel),
		CheckInterval:  time.Duration(DefaultCheckInterval) * time.Minute,
		NotifyInterval: time.Duration(DefaultNotifyInterval) * time.Minute,
		HarvestLimit:   DefaultHarvestLimit,
		LogLevel:       logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
