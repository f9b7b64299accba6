// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package smartproxy implements the Smart Proxy: a namespace-scoped view of
// an aggregated, transformed tool catalogue that can be searched with
// natural-language queries and dispatched to the owning downstream
// connection.
package smartproxy

import (
	"context"

	"github.com/google/uuid"
)

// ToolDescriptor is the post-transform, client-facing shape of a tool.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// BackendTarget identifies the downstream connection that owns a tool.
// Handle is an opaque identifier resolved through an external connection
// manager; the proxy never dereferences it directly.
type BackendTarget struct {
	ServerName string
	Handle     any
}

// BoundTool is one element of the batch passed to Bind. It is produced by
// an upstream transformer that has already applied renames and rewrites.
type BoundTool struct {
	ServerName   string
	OriginalName string
	ToolUUID     uuid.UUID
	Descriptor   ToolDescriptor
	Backend      *BackendTarget
}

// UniqueID returns the stable key used throughout the in-memory tool table:
// serverName + "::" + originalName.
func (b BoundTool) UniqueID() string {
	return UniqueID(b.ServerName, b.OriginalName)
}

// UniqueID builds the canonical tool table key from its components.
func UniqueID(serverName, originalName string) string {
	return serverName + "::" + originalName
}

// ToolEntry is the in-memory representation of a bound tool.
type ToolEntry struct {
	UniqueID   string
	ServerName string
	ToolUUID   uuid.UUID
	Descriptor ToolDescriptor
	Backend    *BackendTarget
}

// ScoredCandidate is a (tool identifier, score) pair as produced by either
// search backend, before the dynamic-limit selector prunes the list and the
// final descriptor is assembled.
type ScoredCandidate struct {
	UniqueID string
	Score    float64
}

// Descriptor is the shape returned to the client by discover, after score
// stripping.
type Descriptor struct {
	ToolID      string         `json:"toolId"`
	Method      string         `json:"method"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// BackendConnector forwards a tool call to the backend that owns it. It is
// borrowed, not owned: the proxy never manages its lifecycle.
type BackendConnector interface {
	CallTool(ctx context.Context, target *BackendTarget, method string, args map[string]any) (map[string]any, error)
}

// SearchMode selects which backend discover consults first.
type SearchMode string

// Search modes recognized by the orchestrator.
const (
	SearchModeKeyword    SearchMode = "keyword"
	SearchModeEmbeddings SearchMode = "embeddings"
)
