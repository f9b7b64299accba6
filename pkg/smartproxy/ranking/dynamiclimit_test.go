// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect_S4DropThreshold(t *testing.T) {
	t.Parallel()
	scores := []float64{0.95, 0.93, 0.90, 0.50, 0.48}
	assert.Equal(t, 3, Select(scores, DefaultConfig()))
}

func TestSelect_S5AbsoluteFloor(t *testing.T) {
	t.Parallel()
	scores := []float64{0.20, 0.19}
	assert.Equal(t, 0, Select(scores, DefaultConfig()))
}

func TestSelect_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		cfg    Config
		want   int
	}{
		{
			name:   "empty input",
			scores: nil,
			cfg:    DefaultConfig(),
			want:   0,
		},
		{
			name:   "single result above floor",
			scores: []float64{0.5},
			cfg:    DefaultConfig(),
			want:   1,
		},
		{
			name:   "single result below floor",
			scores: []float64{0.1},
			cfg:    DefaultConfig(),
			want:   0,
		},
		{
			name:   "capped at maxResults despite near ties",
			scores: []float64{0.9, 0.89, 0.88, 0.87, 0.86},
			cfg:    Config{MaxResults: 2, MinScore: 0.3, DropThreshold: 0.30},
			want:   2,
		},
		{
			name:   "all near-tied returns all",
			scores: []float64{0.9, 0.89, 0.88, 0.87, 0.86},
			cfg:    DefaultConfig(),
			want:   5,
		},
		{
			name:   "zero score never divides by zero",
			scores: []float64{0.0, 0.0},
			cfg:    Config{MaxResults: 10, MinScore: 0.0, DropThreshold: 0.3},
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Select(tt.scores, tt.cfg))
		})
	}
}

func TestSelect_MonotonicityInMaxResults(t *testing.T) {
	t.Parallel()
	scores := []float64{0.9, 0.85, 0.8, 0.75, 0.7}

	small := Select(scores, Config{MaxResults: 2, MinScore: 0.3, DropThreshold: 0.5})
	large := Select(scores, Config{MaxResults: 4, MinScore: 0.3, DropThreshold: 0.5})
	assert.LessOrEqual(t, small, large)
}

func TestSelect_MonotonicityInMinScoreAndDropThreshold(t *testing.T) {
	t.Parallel()
	scores := []float64{0.9, 0.6, 0.59, 0.58}

	looseMinScore := Select(scores, Config{MaxResults: 10, MinScore: 0.3, DropThreshold: 0.9})
	tightMinScore := Select(scores, Config{MaxResults: 10, MinScore: 0.65, DropThreshold: 0.9})
	assert.GreaterOrEqual(t, looseMinScore, tightMinScore)

	looseDrop := Select(scores, Config{MaxResults: 10, MinScore: 0.3, DropThreshold: 0.9})
	tightDrop := Select(scores, Config{MaxResults: 10, MinScore: 0.3, DropThreshold: 0.1})
	assert.GreaterOrEqual(t, looseDrop, tightDrop)
}
