// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package app wires the smartproxyctl subcommands together.
package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

// NewRootCmd builds the smartproxyctl root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "smartproxyctl",
		DisableAutoGenTag: true,
		Short:             "Operator debugging CLI for the Smart Proxy",
		Long: `smartproxyctl binds a fixture tool catalogue into a Smart Proxy
orchestrator and exercises discover against it, outside of a live MCP
session. It is an inward operator tool: it never speaks the outward
client protocol, it has no execute command, and the orchestrator it
builds is wired to a stub connector that echoes its arguments back.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			zapLogger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = zapLogger.Sugar()
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "path to a smart proxy YAML config file (defaults applied if omitted)")
	root.PersistentFlags().String("tools", "", "path to a JSON fixture of bound tools")
	root.PersistentFlags().String("dsn", "", "Postgres DSN, required when the config's searchMode is embeddings")

	root.AddCommand(newBindCmd())
	root.AddCommand(newDiscoverCmd())
	return root
}
