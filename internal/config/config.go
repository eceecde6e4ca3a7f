// Package config loads runtime configuration from an optional YAML file.
package config

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/certfisk/certfisk/internal/certstream"
)

// Config holds every runtime knob. Zero values fall back to defaults, so a
// partial YAML file overrides only what it names.
type Config struct {
	StreamURL   string `yaml:"stream_url"`
	AlertLog    string `yaml:"alert_log"`
	KeywordFile string `yaml:"keyword_file"`
	MetricsAddr string `yaml:"metrics_addr"`
	Workers     int    `yaml:"workers"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StreamURL:   certstream.DefaultStreamURL,
		AlertLog:    "certfisk.log",
		MetricsAddr: ":9090",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.StreamURL == "" {
		return fmt.Errorf("stream_url must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
