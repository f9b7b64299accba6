// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lukolszewski/metamcp-go/pkg/smartproxy"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/config"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/embedding"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/vectorstore"
)

// fixtureTool is the on-disk shape of one entry in a --tools JSON fixture.
type fixtureTool struct {
	ServerName   string         `json:"serverName"`
	OriginalName string         `json:"originalName"`
	ToolUUID     string         `json:"toolUuid"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
}

// stubConnector echoes its arguments back. The real downstream transport
// client is out of this module's scope; smartproxyctl exists to exercise
// bind/discover, not to dispatch live tool calls.
type stubConnector struct{}

func (stubConnector) CallTool(_ context.Context, target *smartproxy.BackendTarget, method string, args map[string]any) (map[string]any, error) {
	return map[string]any{"server": target.ServerName, "method": method, "args": args, "note": "stub connector, not dispatched"}, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config file: %w", err)
	}
	return config.Load(data)
}

func loadTools(cmd *cobra.Command) ([]smartproxy.BoundTool, error) {
	path, err := cmd.Flags().GetString("tools")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("--tools is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tools fixture: %w", err)
	}

	var fixtures []fixtureTool
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse tools fixture: %w", err)
	}

	tools := make([]smartproxy.BoundTool, len(fixtures))
	for i, f := range fixtures {
		toolUUID := uuid.New()
		if f.ToolUUID != "" {
			parsed, err := uuid.Parse(f.ToolUUID)
			if err != nil {
				return nil, fmt.Errorf("parse toolUuid for %s::%s: %w", f.ServerName, f.OriginalName, err)
			}
			toolUUID = parsed
		}
		tools[i] = smartproxy.BoundTool{
			ServerName:   f.ServerName,
			OriginalName: f.OriginalName,
			ToolUUID:     toolUUID,
			Descriptor: smartproxy.ToolDescriptor{
				Name:        f.ServerName + "__" + f.OriginalName,
				Description: f.Description,
				InputSchema: f.InputSchema,
			},
			Backend: &smartproxy.BackendTarget{ServerName: f.ServerName},
		}
	}
	return tools, nil
}

// buildOrchestrator builds an orchestrator from an already loaded config
// and, when the config selects embeddings search, dials the embedding
// service and opens the Postgres vector store. In keyword mode neither
// dependency is constructed.
func buildOrchestrator(cmd *cobra.Command, cfg config.Config) (*smartproxy.Orchestrator, error) {
	opts := smartproxy.Options{
		SearchMode:          cfg.SearchMode,
		Lexical:             cfg.LexicalConfig(),
		Ranking:             cfg.RankingConfig(),
		Truncation:          cfg.TruncationConfig(),
		DiscoverDescription: cfg.DiscoverDescription,
		NamespaceUUID:       uuid.New(),
		ModelName:           cfg.Embedding.Model,
	}

	if cfg.SearchMode != smartproxy.SearchModeEmbeddings {
		return smartproxy.NewOrchestrator(opts, stubConnector{}, nil, nil, logger), nil
	}

	dsn, err := cmd.Flags().GetString("dsn")
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("--dsn is required when searchMode is embeddings")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := vectorstore.Migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("apply vector store migrations: %w", err)
	}

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm connection: %w", err)
	}

	embeddingClient := embedding.New(embedding.Config{
		BaseURL: cfg.Embedding.APIURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, logger)
	repository := vectorstore.New(db, logger)

	return smartproxy.NewOrchestrator(opts, stubConnector{}, embeddingClient, repository, logger), nil
}
