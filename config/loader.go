// Package config loads and validates the application configuration from a
// YAML file, with a .env overlay for the values that differ per deployment.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads, overlays and validates the configuration at path.
func Load(path string) (*AppConfig, error) {
	// Absent .env is fine, the file is a development convenience.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv overrides the deployment-specific values from the environment.
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("GTFSRT2LC_STATIC_SOURCE"); v != "" {
		cfg.Static.Source = v
	}
	if v := os.Getenv("GTFSRT2LC_REALTIME_SOURCE"); v != "" {
		cfg.Realtime.Source = v
	}
	if v := os.Getenv("GTFSRT2LC_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("GTFSRT2LC_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "mem"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "lc.connections"
	}
	if cfg.Realtime.TimeoutMS == 0 {
		cfg.Realtime.TimeoutMS = 30000
	}
}
