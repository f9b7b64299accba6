// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Bind a fixture tool catalogue and run a discover query against it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries, err := cmd.Flags().GetStringArray("query")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tools, err := loadTools(cmd)
			if err != nil {
				return err
			}
			orchestrator, err := buildOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}

			if err := orchestrator.Bind(context.Background(), tools); err != nil {
				return err
			}

			result, err := orchestrator.Discover(context.Background(), queries)
			if err != nil {
				return err
			}

			for _, content := range result.Content {
				if textContent, ok := content.(mcp.TextContent); ok {
					fmt.Println(textContent.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArray("query", nil, "a natural-language query; repeat the flag for multiple queries")
	return cmd
}
