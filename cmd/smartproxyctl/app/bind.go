// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"github.com/spf13/cobra"
)

func newBindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bind",
		Short: "Bind a fixture tool catalogue and report what was indexed",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			logger.Infow("bind complete", "searchMode", cfg.SearchMode, "toolCount", len(tools))
			for _, catalogueEntry := range orchestrator.StaticCatalogue() {
				logger.Infow("static tool available", "name", catalogueEntry.Name)
			}
			return nil
		},
	}
}
