package docxml

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// Config contains all configuration options for the engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// StrictMode makes recognized-but-invalid constructs fatal during parse.
	// When false, parse degrades them to safe fallbacks and records warnings.
	StrictMode bool
	// CompressParts enables deflate compression when writing the package.
	// When false, parts are stored uncompressed.
	CompressParts bool
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "warn",
		StrictMode:    false,
		CompressParts: true,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCXML_LOG_LEVEL
	if val := os.Getenv("DOCXML_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// DOCXML_PARSE_MODE
	if val := os.Getenv("DOCXML_PARSE_MODE"); val != "" {
		config.StrictMode = strings.EqualFold(val, "strict")
	}

	// DOCXML_COMPRESS
	if val := os.Getenv("DOCXML_COMPRESS"); val != "" {
		config.CompressParts = parseBool(val)
	}

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	return nil
}

// ParseMode returns the parse mode selected by the configuration.
func (c *Config) ParseMode() ParseMode {
	if c.StrictMode {
		return Strict
	}
	return Lenient
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
