// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package smartproxy

import (
	"sort"
	"strings"

	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/truncation"
)

// ParameterDescriptions concatenates the "description" field of every
// top-level property in a JSON input schema, newline-joined, properties
// sorted by name for determinism.
func ParameterDescriptions(inputSchema map[string]any) string {
	props, _ := inputSchema["properties"].(map[string]any)
	if len(props) == 0 {
		return ""
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		desc, _ := prop["description"].(string)
		if desc == "" {
			continue
		}
		lines = append(lines, desc)
	}
	return strings.Join(lines, "\n")
}

// CanonicalText builds the deterministic text submitted to the embedding
// model for one tool, per the documented format:
//
//	<method>: <truncated_description_or_"No description">
//	Parameters: <parameterDescriptions_or_"none">
func CanonicalText(method, description, parameterDescriptions string, truncCfg truncation.Config) string {
	truncated := truncation.Truncate(description, truncCfg)
	if truncated == "" {
		truncated = "No description"
	}

	params := parameterDescriptions
	if params == "" {
		params = "none"
	}

	var b strings.Builder
	b.WriteString(method)
	b.WriteString(": ")
	b.WriteString(truncated)
	b.WriteString("\nParameters: ")
	b.WriteString(params)
	return b.String()
}
