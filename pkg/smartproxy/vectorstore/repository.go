// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/apierrors"
)

// maxUpsertBatch caps how many rows a single reconciliation batch upserts
// in one call, matching the orchestrator's reconciliation batch of 50
// embeddings so a reconciliation pass never needs to chunk twice.
const maxUpsertBatch = 50

// EmbeddingRow is the caller-facing shape of one row to upsert: the
// orchestrator builds these after calling the embedding client, so the
// repository package never depends on the embedding package.
type EmbeddingRow struct {
	ToolUUID            uuid.UUID
	NamespaceUUID       uuid.UUID
	ModelName           string
	EmbeddingDimensions int
	Embedding           []float32
	EmbeddingText       string
}

// CandidateText is one (tool_uuid, canonical_text) pair consulted by
// ToolsNeedingEmbeddings during reconciliation.
type CandidateText struct {
	ToolUUID      uuid.UUID
	EmbeddingText string
}

// Repository persists and queries tool embeddings in Postgres via
// pgvector.
type Repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New wraps an already-connected *gorm.DB. logger may be nil, in which
// case a no-op logger is used.
func New(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Repository{db: db, logger: logger}
}

// Upsert inserts or updates rows, keyed on (tool_uuid, namespace_uuid,
// model_name). Batches larger than maxUpsertBatch are split and run
// concurrently inside an errgroup; a cancelled ctx aborts remaining
// batches without rolling back batches that already committed, matching
// the reconciliation protocol's "partial progress is acceptable" policy.
func (r *Repository) Upsert(ctx context.Context, rows []EmbeddingRow) error {
	if len(rows) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		group.Go(func() error {
			return r.upsertBatch(groupCtx, batch)
		})
	}
	if err := group.Wait(); err != nil {
		return &apierrors.VectorStoreError{Op: "upsert", Err: err}
	}
	return nil
}

func (r *Repository) upsertBatch(ctx context.Context, rows []EmbeddingRow) error {
	records := make([]ToolEmbeddingRow, len(rows))
	for i, row := range rows {
		records[i] = ToolEmbeddingRow{
			ID:                  uuid.New(),
			ToolUUID:            row.ToolUUID,
			NamespaceUUID:       row.NamespaceUUID,
			ModelName:           row.ModelName,
			EmbeddingDimensions: row.EmbeddingDimensions,
			Embedding:           pgvector.NewVector(row.Embedding),
			EmbeddingText:       row.EmbeddingText,
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tool_uuid"}, {Name: "namespace_uuid"}, {Name: "model_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "embedding_text", "embedding_dimensions", "updated_at"}),
		}).
		Create(&records).Error
}

// similarRow is the scan target for the raw findSimilar query; it is not
// exported because callers only ever see SimilarTool.
type similarRow struct {
	ToolUUID uuid.UUID `gorm:"column:tool_uuid"`
	Distance float64   `gorm:"column:distance"`
}

// FindSimilar orders stored rows by ascending cosine distance to query
// and returns the nearest limit matches, scoped to one namespace and
// model. Ties are left in whatever order Postgres returns them.
func (r *Repository) FindSimilar(ctx context.Context, namespaceUUID uuid.UUID, modelName string, query []float32, limit int) ([]SimilarTool, error) {
	if limit <= 0 {
		return nil, nil
	}
	vector := pgvector.NewVector(query)

	var rows []similarRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT tool_uuid, embedding <=> ? AS distance
		FROM tool_embeddings
		WHERE namespace_uuid = ? AND model_name = ?
		ORDER BY embedding <=> ?
		LIMIT ?`, vector, namespaceUUID, modelName, vector, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, &apierrors.VectorStoreError{Op: "findSimilar", Err: err}
	}

	results := make([]SimilarTool, len(rows))
	for i, row := range rows {
		results[i] = SimilarTool{ToolUUID: row.ToolUUID, Distance: row.Distance}
	}
	return results, nil
}

// ToolsNeedingEmbeddings returns every tool_uuid from requested that has
// no stored row, or whose stored embedding_text differs byte-for-byte
// from the requested text — the reconciliation staleness check.
func (r *Repository) ToolsNeedingEmbeddings(ctx context.Context, requested []CandidateText, namespaceUUID uuid.UUID, modelName string) ([]uuid.UUID, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(requested))
	wantedText := make(map[uuid.UUID]string, len(requested))
	for i, c := range requested {
		ids[i] = c.ToolUUID
		wantedText[c.ToolUUID] = c.EmbeddingText
	}

	var existing []ToolEmbeddingRow
	err := r.db.WithContext(ctx).
		Select("tool_uuid", "embedding_text").
		Where("namespace_uuid = ? AND model_name = ? AND tool_uuid IN ?", namespaceUUID, modelName, ids).
		Find(&existing).Error
	if err != nil {
		return nil, &apierrors.VectorStoreError{Op: "toolsNeedingEmbeddings", Err: err}
	}

	storedText := make(map[uuid.UUID]string, len(existing))
	for _, row := range existing {
		storedText[row.ToolUUID] = row.EmbeddingText
	}

	var needed []uuid.UUID
	for _, id := range ids {
		stored, ok := storedText[id]
		if !ok || stored != wantedText[id] {
			needed = append(needed, id)
		}
	}
	return needed, nil
}

// DeleteByToolUUIDs removes every row for the given tools, across all
// namespaces and models.
func (r *Repository) DeleteByToolUUIDs(ctx context.Context, toolUUIDs []uuid.UUID) error {
	if len(toolUUIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("tool_uuid IN ?", toolUUIDs).Delete(&ToolEmbeddingRow{}).Error
	if err != nil {
		return &apierrors.VectorStoreError{Op: "deleteByToolUuids", Err: err}
	}
	return nil
}

// DeleteByNamespace removes every row for a namespace, optionally scoped
// to a single model name.
func (r *Repository) DeleteByNamespace(ctx context.Context, namespaceUUID uuid.UUID, modelName string) error {
	q := r.db.WithContext(ctx).Where("namespace_uuid = ?", namespaceUUID)
	if modelName != "" {
		q = q.Where("model_name = ?", modelName)
	}
	if err := q.Delete(&ToolEmbeddingRow{}).Error; err != nil {
		return &apierrors.VectorStoreError{Op: "deleteByNamespace", Err: err}
	}
	return nil
}

// DeleteByToolAndNamespace removes the row for one tool within one
// namespace, across all models.
func (r *Repository) DeleteByToolAndNamespace(ctx context.Context, toolUUID, namespaceUUID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("tool_uuid = ? AND namespace_uuid = ?", toolUUID, namespaceUUID).
		Delete(&ToolEmbeddingRow{}).Error
	if err != nil {
		return &apierrors.VectorStoreError{Op: "deleteByToolAndNamespace", Err: err}
	}
	return nil
}

// CountByNamespace reports how many rows exist for a namespace.
func (r *Repository) CountByNamespace(ctx context.Context, namespaceUUID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ToolEmbeddingRow{}).
		Where("namespace_uuid = ?", namespaceUUID).
		Count(&count).Error
	if err != nil {
		return 0, &apierrors.VectorStoreError{Op: "countByNamespace", Err: err}
	}
	return count, nil
}

// Exists reports whether a row is already stored for the given tuple.
func (r *Repository) Exists(ctx context.Context, toolUUID, namespaceUUID uuid.UUID, modelName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ToolEmbeddingRow{}).
		Where("tool_uuid = ? AND namespace_uuid = ? AND model_name = ?", toolUUID, namespaceUUID, modelName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check embedding existence: %w", &apierrors.VectorStoreError{Op: "exists", Err: err})
	}
	return count > 0, nil
}
