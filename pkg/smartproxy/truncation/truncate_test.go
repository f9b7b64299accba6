// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package truncation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		description string
		cfg         Config
		want        string
	}{
		{
			name:        "disabled returns verbatim",
			description: "A long paragraph.\n{schema: ...}",
			cfg:         Config{Enabled: false, Delimiter: "\n", Occurrence: 1, MinLength: 5},
			want:        "A long paragraph.\n{schema: ...}",
		},
		{
			name:        "empty input returns empty",
			description: "",
			cfg:         DefaultConfig(),
			want:        "",
		},
		{
			name:        "first occurrence meets min length",
			description: "A long paragraph.\n{schema: ...}",
			cfg:         DefaultConfig(),
			want:        "A long paragraph.",
		},
		{
			name:        "no delimiter returns verbatim",
			description: "No newlines here at all.",
			cfg:         DefaultConfig(),
			want:        "No newlines here at all.",
		},
		{
			name:        "first occurrence too short, second meets minLength",
			description: "Hi\nThis part is long enough to pass.\nTrailer",
			cfg:         Config{Enabled: true, Delimiter: "\n", Occurrence: 1, MinLength: 10},
			want:        "Hi\nThis part is long enough to pass.",
		},
		{
			name:        "no occurrence meets minLength returns original",
			description: "Hi\nOk\nYo",
			cfg:         Config{Enabled: true, Delimiter: "\n", Occurrence: 1, MinLength: 50},
			want:        "Hi\nOk\nYo",
		},
		{
			name:        "occurrence greater than 1 skips earlier delimiters",
			description: "one\ntwo\nthree and this is long enough",
			cfg:         Config{Enabled: true, Delimiter: "\n", Occurrence: 2, MinLength: 5},
			want:        "one\ntwo",
		},
		{
			name:        "trims surrounding whitespace from prefix",
			description: "  padded text  \nrest",
			cfg:         Config{Enabled: true, Delimiter: "\n", Occurrence: 1, MinLength: 3},
			want:        "padded text",
		},
		{
			name:        "custom multi-char delimiter",
			description: "method block---the rest of the description",
			cfg:         Config{Enabled: true, Delimiter: "---", Occurrence: 1, MinLength: 3},
			want:        "method block",
		},
		{
			name:        "occurrence less than one treated as one",
			description: "abc\ndefghijk",
			cfg:         Config{Enabled: true, Delimiter: "\n", Occurrence: 0, MinLength: 1},
			want:        "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Truncate(tt.description, tt.cfg))
		})
	}
}
