// Package config reads epubpager settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds settings shared by every command. Command line flags
// override the environment.
type Config struct {
	ViewportWidth int    `env:"EPUBPAGER_VIEWPORT_WIDTH" env-default:"0" env-description:"Viewport width in pixels used to pick the page size; 0 uses the terminal width"`
	ChapterBreaks bool   `env:"EPUBPAGER_CHAPTER_BREAKS" env-default:"false" env-description:"Start every chapter on a new page"`
	LogLevel      string `env:"EPUBPAGER_LOG_LEVEL" env-default:"info" env-description:"Log level: debug, info, warn, error"`
	LogFormat     string `env:"EPUBPAGER_LOG_FORMAT" env-default:"text" env-description:"Log format: text, json"`
	LogFile       string `env:"EPUBPAGER_LOG_FILE" env-description:"File that receives logs while the reader is open"`
	Library       string `env:"EPUBPAGER_LIBRARY" env-default:"." env-description:"Directory scanned by the library command"`
	CoverWidth    int    `env:"EPUBPAGER_COVER_WIDTH" env-default:"600" env-description:"Maximum cover thumbnail width in pixels; 0 keeps the original size"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Errors name the command line flag that
// sets the value.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	if c.ViewportWidth < 0 {
		return fmt.Errorf("invalid --width %d: must be 0 or greater", c.ViewportWidth)
	}
	if c.CoverWidth < 0 {
		return fmt.Errorf("invalid --cover-width %d: must be 0 or greater", c.CoverWidth)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --log-format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.New("must be one of debug, info, warn, error")
	}
}

// Usage describes the supported environment variables.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
