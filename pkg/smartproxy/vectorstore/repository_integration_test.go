// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package vectorstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// embeddingDims is the dimension the tool_embeddings.embedding column
// declares in the migrations.
const embeddingDims = 1024

// embeddingOf zero-pads values to embeddingDims, which leaves cosine
// distances between the padded vectors unchanged.
func embeddingOf(values ...float32) []float32 {
	v := make([]float32, embeddingDims)
	copy(v, values)
	return v
}

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "pgvector/pgvector:pg16",
		tcpostgres.WithDatabase("smartproxy"),
		tcpostgres.WithUsername("smartproxy"),
		tcpostgres.WithPassword("smartproxy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker not available for postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(sqlDB))

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestIntegration_UpsertAndFindSimilar(t *testing.T) {
	db := startPostgres(t)
	repo := New(db, nil)
	ctx := context.Background()

	namespace := uuid.New()
	toolA := uuid.New()
	toolB := uuid.New()

	err := repo.Upsert(ctx, []EmbeddingRow{
		{ToolUUID: toolA, NamespaceUUID: namespace, ModelName: "BAAI/bge-m3", EmbeddingDimensions: embeddingDims, Embedding: embeddingOf(1, 0, 0), EmbeddingText: "a"},
		{ToolUUID: toolB, NamespaceUUID: namespace, ModelName: "BAAI/bge-m3", EmbeddingDimensions: embeddingDims, Embedding: embeddingOf(0, 1, 0), EmbeddingText: "b"},
	})
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, namespace, "BAAI/bge-m3", embeddingOf(0.9, 0.1, 0), 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, toolA, results[0].ToolUUID)
}

func TestIntegration_ToolsNeedingEmbeddings(t *testing.T) {
	db := startPostgres(t)
	repo := New(db, nil)
	ctx := context.Background()

	namespace := uuid.New()
	toolA := uuid.New()
	toolB := uuid.New()

	require.NoError(t, repo.Upsert(ctx, []EmbeddingRow{
		{ToolUUID: toolA, NamespaceUUID: namespace, ModelName: "BAAI/bge-m3", EmbeddingDimensions: embeddingDims, Embedding: embeddingOf(1, 0, 0), EmbeddingText: "original"},
	}))

	needed, err := repo.ToolsNeedingEmbeddings(ctx, []CandidateText{
		{ToolUUID: toolA, EmbeddingText: "original"},
		{ToolUUID: toolA, EmbeddingText: "changed"},
		{ToolUUID: toolB, EmbeddingText: "anything"},
	}, namespace, "BAAI/bge-m3")
	require.NoError(t, err)
	require.Contains(t, needed, toolB)
}

func TestIntegration_DeletesAndCount(t *testing.T) {
	db := startPostgres(t)
	repo := New(db, nil)
	ctx := context.Background()

	namespace := uuid.New()
	toolA := uuid.New()

	require.NoError(t, repo.Upsert(ctx, []EmbeddingRow{
		{ToolUUID: toolA, NamespaceUUID: namespace, ModelName: "BAAI/bge-m3", EmbeddingDimensions: embeddingDims, Embedding: embeddingOf(1, 2, 3), EmbeddingText: "x"},
	}))

	count, err := repo.CountByNamespace(ctx, namespace)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	exists, err := repo.Exists(ctx, toolA, namespace, "BAAI/bge-m3")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.DeleteByToolAndNamespace(ctx, toolA, namespace))

	count, err = repo.CountByNamespace(ctx, namespace)
	require.NoError(t, err)
	require.Zero(t, count)
}
