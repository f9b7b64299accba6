// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package vectorstore persists tool embeddings in Postgres via pgvector
// and answers nearest-neighbor queries for the vector discovery path.
package vectorstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ToolEmbeddingRow is the persisted row backing one (tool, namespace,
// model) embedding. The unique index on (ToolUUID, NamespaceUUID,
// ModelName) enforces invariant E1 (at most one row per tuple).
// EmbeddingText is kept byte-for-byte equal to the text that produced
// Embedding (invariant E2); a reconciliation pass detects staleness by
// comparing it against the tool's current canonical text rather than
// re-embedding unconditionally on every bind. EmbeddingDimensions mirrors
// len(Embedding) at write time (invariant E3) and exists as a
// sanity-check column independent of the vector type's own length.
type ToolEmbeddingRow struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ToolUUID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tool_embeddings_identity"`
	NamespaceUUID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tool_embeddings_identity"`
	ModelName           string          `gorm:"size:128;not null;uniqueIndex:idx_tool_embeddings_identity;default:'BAAI/bge-m3'"`
	EmbeddingDimensions int             `gorm:"not null"`
	Embedding           pgvector.Vector `gorm:"type:vector(1024);not null"`
	EmbeddingText       string          `gorm:"type:text;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName pins the table name so migrations and GORM agree regardless of
// the pluralization convention in effect.
func (ToolEmbeddingRow) TableName() string {
	return "tool_embeddings"
}

// SimilarTool is one row of a nearest-neighbor query result: the matched
// tool identity plus its cosine distance (0 is identical, 2 is opposite).
type SimilarTool struct {
	ToolUUID uuid.UUID
	Distance float64
}
