// Package config loads daemon configuration from an optional YAML file with
// environment variable overrides. A .env file, when present, is folded into
// the environment before anything is read.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved daemon configuration.
type Config struct {
	// HTTP
	ListenAddr string `yaml:"listen_addr"`

	// Storage
	DBPath string `yaml:"db_path"`

	// LLM backend
	OllamaBaseURL string `yaml:"ollama_base_url"`
	OllamaModel   string `yaml:"ollama_model"`

	// Agent loop
	MaxIterations int    `yaml:"max_iterations"`
	HistoryWindow int    `yaml:"history_window"`
	Timezone      string `yaml:"timezone"`

	// Working hours for slot suggestions.
	WorkStartHour int `yaml:"work_start_hour"`
	WorkEndHour   int `yaml:"work_end_hour"`

	// Discord gateway. Empty token disables the gateway.
	DiscordToken   string `yaml:"-"`
	DiscordChannel string `yaml:"discord_channel_id"`

	// External calendar mirror. Empty base URL disables sync.
	CalendarBaseURL string `yaml:"calendar_base_url"`
	CalendarAPIKey  string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:    ":8000",
		DBPath:        "data/schedagent.db",
		OllamaBaseURL: "http://localhost:11434",
		OllamaModel:   "qwen2.5:7b",
		MaxIterations: 10,
		HistoryWindow: 50,
		Timezone:      "Asia/Taipei",
		WorkStartHour: 9,
		WorkEndHour:   18,
	}
}

// Load resolves configuration in ascending precedence: built-in defaults, the
// YAML file at path (skipped when path is empty or missing), then environment
// variables. Secrets only come from the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// optional file
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	envString(&cfg.ListenAddr, "LISTEN_ADDR")
	envString(&cfg.DBPath, "DB_PATH")
	envString(&cfg.OllamaBaseURL, "OLLAMA_BASE_URL")
	envString(&cfg.OllamaModel, "OLLAMA_MODEL")
	envInt(&cfg.MaxIterations, "AGENT_MAX_ITERATIONS")
	envInt(&cfg.HistoryWindow, "AGENT_HISTORY_WINDOW")
	envString(&cfg.Timezone, "AGENT_TIMEZONE")
	envInt(&cfg.WorkStartHour, "WORK_START_HOUR")
	envInt(&cfg.WorkEndHour, "WORK_END_HOUR")
	envString(&cfg.DiscordToken, "DISCORD_TOKEN")
	envString(&cfg.DiscordChannel, "DISCORD_CHANNEL_ID")
	envString(&cfg.CalendarBaseURL, "CALENDAR_BASE_URL")
	envString(&cfg.CalendarAPIKey, "CALENDAR_API_KEY")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history_window must be at least 1, got %d", c.HistoryWindow)
	}
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkStartHour >= c.WorkEndHour {
		return fmt.Errorf("work hours %d-%d out of order", c.WorkStartHour, c.WorkEndHour)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Call after Load; validation
// guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}
