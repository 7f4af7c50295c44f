//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the YAML configuration of models, engine, aggregation
// and telemetry.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/strategy"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model/provider"
	"trpc.group/trpc-go/trpc-eval-go/registry"
)

// Config is the root of the configuration file.
type Config struct {
	Log         Log         `yaml:"log"`
	Engine      Engine      `yaml:"engine"`
	Aggregation Aggregation `yaml:"aggregation"`
	Telemetry   Telemetry   `yaml:"telemetry"`
	Models      []Model     `yaml:"models"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Engine configures the evaluation engine.
type Engine struct {
	PoolSize          int           `yaml:"pool_size"`
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`
}

// Aggregation selects the score aggregation strategy. Threshold, Tolerance
// and TieVerdict fall back to the documented defaults when absent.
type Aggregation struct {
	Strategy   string   `yaml:"strategy"`
	Threshold  *float64 `yaml:"threshold"`
	Tolerance  *float64 `yaml:"tolerance"`
	TieVerdict string   `yaml:"tie_verdict"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Tracing Exporter `yaml:"tracing"`
	Metrics Exporter `yaml:"metrics"`
}

// Exporter configures one OTLP gRPC exporter.
type Exporter struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Model declares one evaluator model.
type Model struct {
	ID             string        `yaml:"id"`
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	BaseURL        string        `yaml:"base_url"`
	EmbeddingModel string        `yaml:"embedding_model"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
}

// RateLimit throttles calls to one model. Zero RPS disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads, parses and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses and validates YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return errors.New("no models defined")
	}
	seen := make(map[string]bool, len(c.Models))
	for i := range c.Models {
		m := &c.Models[i]
		if m.ID == "" {
			return fmt.Errorf("model %d: id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("model %q: duplicate id", m.ID)
		}
		seen[m.ID] = true
		if m.Provider == "" {
			return fmt.Errorf("model %q: provider is required", m.ID)
		}
		if _, ok := provider.Get(m.Provider); !ok {
			return fmt.Errorf("model %q: unknown provider %q", m.ID, m.Provider)
		}
		if m.Model == "" {
			m.Model = m.ID
		}
		if m.RateLimit.RPS < 0 || m.RateLimit.Burst < 0 {
			return fmt.Errorf("model %q: rate limit must not be negative", m.ID)
		}
		if m.Timeout < 0 {
			return fmt.Errorf("model %q: timeout must not be negative", m.ID)
		}
	}
	if c.Engine.PoolSize < 0 {
		return errors.New("engine pool_size must not be negative")
	}
	if c.Engine.PoolSize == 0 {
		c.Engine.PoolSize = engine.DefaultPoolSize
	}
	if c.Engine.InvocationTimeout < 0 {
		return errors.New("engine invocation_timeout must not be negative")
	}
	if _, err := c.BuildAggregator(); err != nil {
		return err
	}
	if c.Log.Level == "" {
		c.Log.Level = log.LevelInfo
	}
	return nil
}

// ModelIDs returns the configured model ids in file order.
func (c *Config) ModelIDs() []string {
	ids := make([]string, len(c.Models))
	for i, m := range c.Models {
		ids[i] = m.ID
	}
	return ids
}

// BuildAggregator returns the configured aggregation strategy.
func (c *Config) BuildAggregator() (aggregator.Aggregator, error) {
	p := strategy.DefaultParams()
	if c.Aggregation.Threshold != nil {
		p.Threshold = *c.Aggregation.Threshold
	}
	if c.Aggregation.Tolerance != nil {
		p.Tolerance = *c.Aggregation.Tolerance
	}
	if c.Aggregation.TieVerdict != "" {
		p.TieVerdict = c.Aggregation.TieVerdict
	}
	return strategy.New(aggregator.Strategy(c.Aggregation.Strategy), p)
}

// BuildRegistry constructs a handle for every model. API keys are read from
// the environment variables the models name.
func (c *Config) BuildRegistry(ctx context.Context) (registry.Registry, error) {
	entries := make([]registry.Entry, 0, len(c.Models))
	for _, m := range c.Models {
		opts := []provider.Option{
			provider.WithContext(ctx),
			provider.WithBaseURL(m.BaseURL),
			provider.WithEmbeddingModel(m.EmbeddingModel),
			provider.WithMaxTokens(m.MaxTokens),
			provider.WithTimeout(m.Timeout),
			provider.WithRateLimit(m.RateLimit.RPS, m.RateLimit.Burst),
		}
		if m.APIKeyEnv != "" {
			key, ok := os.LookupEnv(m.APIKeyEnv)
			if !ok || key == "" {
				return nil, fmt.Errorf("model %q: environment variable %s is not set", m.ID, m.APIKeyEnv)
			}
			opts = append(opts, provider.WithAPIKey(key))
		}
		h, err := provider.Model(m.Provider, m.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.ID, err)
		}
		entries = append(entries, registry.Entry{ID: m.ID, Handle: h})
	}
	return registry.New(entries...)
}

// EngineOptions returns the engine options the configuration implies.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	agg, err := c.BuildAggregator()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithPoolSize(c.Engine.PoolSize),
		engine.WithAggregator(agg),
	}
	if c.Engine.InvocationTimeout > 0 {
		opts = append(opts, engine.WithInvocationTimeout(c.Engine.InvocationTimeout))
	}
	return opts, nil
}
