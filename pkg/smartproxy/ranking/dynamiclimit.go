// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package ranking reduces a monotonically-descending score list to its
// "plateau": the prefix of results that stays within maxResults, scores at
// least minScore, and is not separated from its neighbor by a significant
// score drop.
package ranking

// Config tunes dynamic-limit selection. The zero value is not directly
// usable; use DefaultConfig.
type Config struct {
	MaxResults    int
	MinScore      float64
	DropThreshold float64
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:    10,
		MinScore:      0.3,
		DropThreshold: 0.30,
	}
}

// Select walks scores in descending order and returns the number of
// elements to keep. scores must already be sorted descending; Select does
// not sort them.
//
// The first result is accepted if its score is at least cfg.MinScore. Each
// subsequent result is accepted unless accepting it would exceed
// cfg.MaxResults, its score falls below cfg.MinScore, or the relative drop
// from the previous score exceeds cfg.DropThreshold.
func Select(scores []float64, cfg Config) int {
	if len(scores) == 0 {
		return 0
	}
	if scores[0] < cfg.MinScore {
		return 0
	}

	accepted := 1
	for i := 1; i < len(scores); i++ {
		if accepted == cfg.MaxResults {
			break
		}
		if scores[i] < cfg.MinScore {
			break
		}
		prev := scores[i-1]
		var drop float64
		if prev != 0 {
			drop = (prev - scores[i]) / prev
		}
		if drop > cfg.DropThreshold {
			break
		}
		accepted++
	}
	return accepted
}
