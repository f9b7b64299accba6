// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the per-endpoint configuration surface that
// governs search mode, fuzzy matching, dynamic-limit truncation, and the
// embedding service connection.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lukolszewski/metamcp-go/pkg/smartproxy"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/lexical"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/ranking"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/truncation"
)

// Duration wraps time.Duration so it can be expressed in YAML as a
// human-readable string ("100ms", "30s") rather than a raw integer of
// nanoseconds.
type Duration struct {
	time.Duration
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// DynamicLimit mirrors ranking.Config with YAML tags.
type DynamicLimit struct {
	MaxResults    int     `yaml:"maxResults"`
	MinScore      float64 `yaml:"minScore"`
	DropThreshold float64 `yaml:"dropThreshold"`
}

// Embedding configures the external embedding service connection.
type Embedding struct {
	APIKey string `yaml:"apiKey"`
	APIURL string `yaml:"apiUrl"`
	Model  string `yaml:"model"`
}

// Truncation mirrors truncation.Config with YAML tags.
type Truncation struct {
	Enabled    bool   `yaml:"enabled"`
	Delimiter  string `yaml:"delimiter"`
	Occurrence int    `yaml:"occurrence"`
	MinLength  int    `yaml:"minLength"`
}

// Config is the full per-endpoint configuration surface.
type Config struct {
	SearchMode smartproxy.SearchMode `yaml:"searchMode"`

	Fuzzy            float64 `yaml:"fuzzy"`
	DescriptionBoost float64 `yaml:"descriptionBoost"`

	DiscoverDescription string `yaml:"discoverDescription"`

	// DiscoverLimit is deprecated; DynamicLimit.MaxResults supersedes it.
	// Load uses it as DynamicLimit.MaxResults only when the document does
	// not set dynamicLimit.maxResults itself.
	DiscoverLimit int `yaml:"discoverLimit,omitempty"`

	DynamicLimit DynamicLimit `yaml:"dynamicLimit"`
	Embedding    Embedding    `yaml:"embedding"`
	Truncation   Truncation   `yaml:"truncation"`
}

// Default returns the spec's documented defaults.
func Default() Config {
	return Config{
		SearchMode:       smartproxy.SearchModeKeyword,
		Fuzzy:            0.2,
		DescriptionBoost: 2.0,
		DynamicLimit: DynamicLimit{
			MaxResults:    10,
			MinScore:      0.3,
			DropThreshold: 0.30,
		},
		Embedding: Embedding{
			Model: "BAAI/bge-m3",
		},
		Truncation: Truncation{
			Enabled:    true,
			Delimiter:  "\n",
			Occurrence: 1,
			MinLength:  5,
		},
	}
}

// Load parses a YAML document into a Config seeded with Default(), so
// any key the document omits keeps its documented default rather than
// zeroing out.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse smart proxy config: %w", err)
	}
	// Default() already seeds MaxResults, so whether the document itself
	// set dynamicLimit.maxResults is read from a second, unseeded decode.
	var explicit struct {
		DynamicLimit struct {
			MaxResults *int `yaml:"maxResults"`
		} `yaml:"dynamicLimit"`
	}
	_ = yaml.Unmarshal(data, &explicit)
	maxResultsUnset := explicit.DynamicLimit.MaxResults == nil || cfg.DynamicLimit.MaxResults <= 0
	if maxResultsUnset && cfg.DiscoverLimit > 0 {
		cfg.DynamicLimit.MaxResults = cfg.DiscoverLimit
	}
	return cfg, nil
}

// LexicalConfig projects the fields relevant to the lexical index.
func (c Config) LexicalConfig() lexical.Config {
	return lexical.Config{Fuzzy: c.Fuzzy, DescriptionBoost: c.DescriptionBoost}
}

// RankingConfig projects the fields relevant to the dynamic-limit
// selector.
func (c Config) RankingConfig() ranking.Config {
	return ranking.Config{
		MaxResults:    c.DynamicLimit.MaxResults,
		MinScore:      c.DynamicLimit.MinScore,
		DropThreshold: c.DynamicLimit.DropThreshold,
	}
}

// TruncationConfig projects the fields relevant to the truncation engine.
func (c Config) TruncationConfig() truncation.Config {
	return truncation.Config{
		Enabled:    c.Truncation.Enabled,
		Delimiter:  c.Truncation.Delimiter,
		Occurrence: c.Truncation.Occurrence,
		MinLength:  c.Truncation.MinLength,
	}
}
