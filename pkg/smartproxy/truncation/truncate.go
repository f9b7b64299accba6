// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package truncation produces the clean description text fed to the
// embedding model, so verbose schema fragments appended to a tool's
// description don't dominate the resulting vector.
package truncation

import "strings"

// Config controls how a description is truncated before it is embedded.
// The zero value is not directly usable; use DefaultConfig.
type Config struct {
	Enabled    bool
	Delimiter  string
	Occurrence int
	MinLength  int
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Delimiter:  "\n",
		Occurrence: 1,
		MinLength:  5,
	}
}

// Truncate scans description for successive occurrences of cfg.Delimiter.
// When the occurrence counter first reaches cfg.Occurrence, it considers
// truncating there: the whitespace-trimmed prefix is returned if its length
// is at least cfg.MinLength. Otherwise scanning continues at the next
// occurrence. If no occurrence yields a long-enough prefix, the original
// description is returned unchanged.
func Truncate(description string, cfg Config) string {
	if !cfg.Enabled || description == "" {
		return description
	}

	occurrence := cfg.Occurrence
	if occurrence < 1 {
		occurrence = 1
	}

	searchFrom := 0
	seen := 0
	for {
		idx := strings.Index(description[searchFrom:], cfg.Delimiter)
		if idx < 0 {
			return description
		}
		idx += searchFrom
		seen++

		if seen >= occurrence {
			prefix := strings.TrimSpace(description[:idx])
			if len(prefix) >= cfg.MinLength {
				return prefix
			}
		}

		searchFrom = idx + len(cfg.Delimiter)
		if searchFrom >= len(description) {
			return description
		}
	}
}
