// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads server configuration. Precedence, lowest to
// highest: built-in defaults, an optional YAML file, environment
// variables. The environment wins so container deployments can override a
// baked-in file without editing it.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvRedisURL    = "REDIS_URL"
	EnvFrontendURL = "FRONTEND_URL"
	EnvListenAddr  = "LISTEN_ADDR"
)

// Config holds everything the server needs at startup.
type Config struct {
	ListenAddr              string `yaml:"listen"`
	RedisURL                string `yaml:"redisUrl"`
	FrontendURL             string `yaml:"frontendUrl"`
	MaxConcurrentReads      int64  `yaml:"maxConcurrentReads"`
	MaxConcurrentChallenges int64  `yaml:"maxConcurrentChallenges"`
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr:              "0.0.0.0:8080",
		RedisURL:                "redis://127.0.0.1:6379",
		FrontendURL:             "http://localhost:3000",
		MaxConcurrentReads:      50,
		MaxConcurrentChallenges: 100,
	}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv(EnvFrontendURL); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (cfg *Config) Validate() error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if cfg.MaxConcurrentReads <= 0 {
		return fmt.Errorf("maxConcurrentReads must be positive, got %d", cfg.MaxConcurrentReads)
	}
	if cfg.MaxConcurrentChallenges <= 0 {
		return fmt.Errorf("maxConcurrentChallenges must be positive, got %d", cfg.MaxConcurrentChallenges)
	}
	if _, err := url.Parse(cfg.FrontendURL); err != nil {
		return fmt.Errorf("parse frontend url: %w", err)
	}
	return nil
}
