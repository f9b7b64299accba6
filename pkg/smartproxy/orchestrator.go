// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package smartproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/apierrors"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/lexical"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/ranking"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/truncation"
	"github.com/lukolszewski/metamcp-go/pkg/smartproxy/vectorstore"
)

const (
	maxEmbeddingBatch   = 50
	interBatchPause     = 100 * time.Millisecond
	defaultOverfetch    = 20
	defaultDiscoverDesc = "Discover available tools across every bound downstream server by describing what you need in one or more natural-language queries."
	executeDescription  = "Execute a tool previously surfaced by discover, identified by its toolId and method."
)

// EmbeddingGenerator is the subset of *embedding.Client the orchestrator
// needs. It is declared here, not imported from the embedding package, so
// tests can supply a hand-rolled fake without standing up an HTTP server.
type EmbeddingGenerator interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	GenerateSingleEmbedding(ctx context.Context, text string) ([]float32, error)
	ModelDimensions() int
}

// EmbeddingStore is the subset of *vectorstore.Repository the orchestrator
// needs.
type EmbeddingStore interface {
	Upsert(ctx context.Context, rows []vectorstore.EmbeddingRow) error
	FindSimilar(ctx context.Context, namespaceUUID uuid.UUID, modelName string, query []float32, limit int) ([]vectorstore.SimilarTool, error)
	ToolsNeedingEmbeddings(ctx context.Context, requested []vectorstore.CandidateText, namespaceUUID uuid.UUID, modelName string) ([]uuid.UUID, error)
}

// Options configures an Orchestrator. The zero value is not directly
// usable: SearchMode, NamespaceUUID and ModelName must be set explicitly,
// and the Lexical/Ranking/Truncation sub-configs should come from a
// loaded config.Config's projection methods.
type Options struct {
	SearchMode SearchMode

	Lexical    lexical.Config
	Ranking    ranking.Config
	Truncation truncation.Config

	DiscoverDescription string

	NamespaceUUID uuid.UUID
	ModelName     string
}

// snapshot is the immutable, lock-free-readable state produced by one
// Bind call. A new snapshot fully replaces the old one; nothing ever
// mutates a snapshot in place.
type snapshot struct {
	tools      map[string]ToolEntry
	byToolUUID map[uuid.UUID]string
	index      *lexical.Index
}

// Orchestrator is the Smart Proxy's core: it owns the bound tool catalogue,
// the lexical and vector search paths, and tool dispatch. All exported
// methods are safe for concurrent use; Bind may run concurrently with
// Discover and Execute, which always observe either the old or the new
// snapshot, never a partial one.
type Orchestrator struct {
	opts      Options
	connector BackendConnector
	embedder  EmbeddingGenerator
	store     EmbeddingStore
	logger    *zap.SugaredLogger

	snap       atomic.Pointer[snapshot]
	downgraded atomic.Bool
}

// NewOrchestrator builds an Orchestrator. embedder and store may be nil if
// opts.SearchMode is SearchModeKeyword; the orchestrator never dials out to
// either unless embeddings search is configured. logger may be nil, in
// which case a no-op logger is used.
func NewOrchestrator(opts Options, connector BackendConnector, embedder EmbeddingGenerator, store EmbeddingStore, logger *zap.SugaredLogger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		opts:      opts,
		connector: connector,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// Bind replaces the tool catalogue wholesale. It rebuilds the lexical
// index synchronously, swaps the snapshot atomically, and then — when the
// orchestrator is configured for embeddings search — runs reconciliation
// before returning (synchronously, but after the swap, so a slow embedding
// backend never delays discover/execute availability).
//
// A reconciliation failure never fails Bind: the session is instead
// downgraded to keyword search for the remainder of its bound catalogue,
// and the failure is logged.
func (o *Orchestrator) Bind(ctx context.Context, tools []BoundTool) error {
	entries := make(map[string]ToolEntry, len(tools))
	byToolUUID := make(map[uuid.UUID]string, len(tools))
	docs := make([]lexical.Document, 0, len(tools))

	for _, t := range tools {
		id := t.UniqueID()
		entries[id] = ToolEntry{
			UniqueID:   id,
			ServerName: t.ServerName,
			ToolUUID:   t.ToolUUID,
			Descriptor: t.Descriptor,
			Backend:    t.Backend,
		}
		byToolUUID[t.ToolUUID] = id

		docs = append(docs, lexical.Document{
			UniqueID:              id,
			ToolID:                t.ServerName,
			Method:                t.OriginalName,
			Description:           t.Descriptor.Description,
			ParameterDescriptions: ParameterDescriptions(t.Descriptor.InputSchema),
		})
	}

	idx, err := lexical.Build(docs, o.opts.Lexical)
	if err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}

	// The previous snapshot's index is not closed here: a concurrent
	// Discover may still be searching it. The in-memory index is left to
	// the garbage collector once no reader holds the old snapshot.
	o.snap.Store(&snapshot{tools: entries, byToolUUID: byToolUUID, index: idx})

	if o.opts.SearchMode != SearchModeEmbeddings || o.embedder == nil || o.store == nil {
		return nil
	}

	o.downgraded.Store(false)
	if err := o.reconcileEmbeddings(ctx, tools); err != nil {
		o.logger.Warnw("embedding reconciliation failed, falling back to keyword search for this catalogue",
			"error", err)
		o.downgraded.Store(true)
	}
	return nil
}

// reconcileEmbeddings ensures every bound tool has a stored embedding
// whose text matches its current canonical text, in batches of at most
// maxEmbeddingBatch with a short pause between batches so a large bind
// doesn't saturate the embedding backend in one burst.
func (o *Orchestrator) reconcileEmbeddings(ctx context.Context, tools []BoundTool) error {
	candidates := make([]vectorstore.CandidateText, 0, len(tools))
	textByUUID := make(map[uuid.UUID]string, len(tools))
	for _, t := range tools {
		text := CanonicalText(t.OriginalName, t.Descriptor.Description, ParameterDescriptions(t.Descriptor.InputSchema), o.opts.Truncation)
		candidates = append(candidates, vectorstore.CandidateText{ToolUUID: t.ToolUUID, EmbeddingText: text})
		textByUUID[t.ToolUUID] = text
	}

	needed, err := o.store.ToolsNeedingEmbeddings(ctx, candidates, o.opts.NamespaceUUID, o.opts.ModelName)
	if err != nil {
		return fmt.Errorf("determine stale embeddings: %w", err)
	}

	for start := 0; start < len(needed); start += maxEmbeddingBatch {
		end := start + maxEmbeddingBatch
		if end > len(needed) {
			end = len(needed)
		}
		batch := needed[start:end]

		texts := make([]string, len(batch))
		for i, id := range batch {
			texts[i] = textByUUID[id]
		}

		vectors, err := o.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return fmt.Errorf("generate embeddings for batch: %w", err)
		}

		rows := make([]vectorstore.EmbeddingRow, len(batch))
		for i, id := range batch {
			rows[i] = vectorstore.EmbeddingRow{
				ToolUUID:            id,
				NamespaceUUID:       o.opts.NamespaceUUID,
				ModelName:           o.opts.ModelName,
				EmbeddingDimensions: len(vectors[i]),
				Embedding:           vectors[i],
				EmbeddingText:       textByUUID[id],
			}
		}
		if err := o.store.Upsert(ctx, rows); err != nil {
			return fmt.Errorf("upsert embeddings for batch: %w", err)
		}

		if end < len(needed) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interBatchPause):
			}
		}
	}
	return nil
}

// Discover runs the configured search path against the current snapshot
// and returns a CallToolResult whose text content is a JSON array of
// Descriptor. An unbound orchestrator, or a catalogue with no matches,
// both return an empty array rather than an error.
func (o *Orchestrator) Discover(ctx context.Context, queries []string) (*mcp.CallToolResult, error) {
	composite := strings.TrimSpace(strings.Join(queries, " "))

	snap := o.snap.Load()
	if snap == nil || composite == "" {
		return mcp.NewToolResultText("[]"), nil
	}

	var (
		descriptors []Descriptor
		err         error
	)
	if o.opts.SearchMode == SearchModeEmbeddings && o.embedder != nil && o.store != nil && !o.downgraded.Load() {
		descriptors, err = o.discoverVector(ctx, snap, composite)
		if err != nil {
			o.logger.Warnw("vector discovery failed, falling back to keyword search", "error", err)
			descriptors = nil
		}
	}

	if descriptors == nil {
		descriptors, err = o.discoverLexical(snap, composite)
		if err != nil {
			return nil, fmt.Errorf("lexical discovery: %w", err)
		}
	}

	if descriptors == nil {
		descriptors = []Descriptor{}
	}

	encoded, err := json.Marshal(descriptors)
	if err != nil {
		return nil, fmt.Errorf("encode discover result: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func (o *Orchestrator) overfetchLimit() int {
	if o.opts.Ranking.MaxResults > 0 {
		return o.opts.Ranking.MaxResults * 2
	}
	return defaultOverfetch
}

func (o *Orchestrator) discoverLexical(snap *snapshot, composite string) ([]Descriptor, error) {
	results, err := snap.index.Search(composite, o.overfetchLimit())
	if err != nil {
		return nil, err
	}
	normalized := lexical.Normalize(results)
	if len(normalized) == 0 {
		return []Descriptor{}, nil
	}

	candidates := make([]ScoredCandidate, len(normalized))
	for i, r := range normalized {
		candidates[i] = ScoredCandidate{UniqueID: r.UniqueID, Score: r.RawScore}
	}
	return o.selectAndResolve(snap, candidates), nil
}

func (o *Orchestrator) discoverVector(ctx context.Context, snap *snapshot, composite string) ([]Descriptor, error) {
	queryVector, err := o.embedder.GenerateSingleEmbedding(ctx, composite)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	similar, err := o.store.FindSimilar(ctx, o.opts.NamespaceUUID, o.opts.ModelName, queryVector, o.overfetchLimit())
	if err != nil {
		return nil, fmt.Errorf("find similar embeddings: %w", err)
	}
	if len(similar) == 0 {
		return []Descriptor{}, nil
	}

	candidates := make([]ScoredCandidate, 0, len(similar))
	for _, s := range similar {
		id, ok := snap.byToolUUID[s.ToolUUID]
		if !ok {
			o.logger.Debugw("dropping vector hit for a tool no longer bound", "toolUuid", s.ToolUUID)
			continue
		}
		candidates = append(candidates, ScoredCandidate{UniqueID: id, Score: 1 - s.Distance})
	}
	return o.selectAndResolve(snap, candidates), nil
}

// selectAndResolve applies the dynamic-limit selector to a candidate list
// already ordered best-first, and resolves the surviving prefix back into
// client-facing descriptors.
func (o *Orchestrator) selectAndResolve(snap *snapshot, candidates []ScoredCandidate) []Descriptor {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}

	n := ranking.Select(scores, o.opts.Ranking)
	if n == 0 {
		return []Descriptor{}
	}

	descriptors := make([]Descriptor, 0, n)
	for _, c := range candidates[:n] {
		entry, ok := snap.tools[c.UniqueID]
		if !ok {
			continue
		}
		descriptors = append(descriptors, Descriptor{
			ToolID:      entry.ServerName,
			Method:      strings.TrimPrefix(entry.UniqueID, entry.ServerName+"::"),
			Description: entry.Descriptor.Description,
			InputSchema: entry.Descriptor.InputSchema,
		})
	}
	return descriptors
}

// Execute dispatches a previously discovered tool by its toolId and
// method. It returns apierrors.ToolNotFoundError when no bound tool
// matches, and apierrors.DownstreamCallError when the connector call
// itself fails.
func (o *Orchestrator) Execute(ctx context.Context, toolID, method string, args map[string]any) (*mcp.CallToolResult, error) {
	snap := o.snap.Load()
	if snap == nil {
		return nil, &apierrors.ToolNotFoundError{ToolID: toolID, Method: method}
	}

	entry, ok := snap.tools[UniqueID(toolID, method)]
	if !ok {
		return nil, &apierrors.ToolNotFoundError{ToolID: toolID, Method: method}
	}

	result, err := o.connector.CallTool(ctx, entry.Backend, method, args)
	if err != nil {
		return nil, &apierrors.DownstreamCallError{ToolID: toolID, Method: method, Err: err}
	}
	return mcp.NewToolResultStructuredOnly(result), nil
}

// StaticCatalogue returns the two tools the Smart Proxy exposes to an MCP
// client, regardless of what is currently bound: discover and execute.
func (o *Orchestrator) StaticCatalogue() []mcp.Tool {
	discoverDescription := o.opts.DiscoverDescription
	if discoverDescription == "" {
		discoverDescription = defaultDiscoverDesc
	}

	return []mcp.Tool{
		{
			Name:        "discover",
			Description: discoverDescription,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"queries": map[string]any{
						"type":        "array",
						"description": "One or more natural-language descriptions of the tool you need.",
						"items":       map[string]any{"type": "string"},
					},
				},
				Required: []string{"queries"},
			},
		},
		{
			Name:        "execute",
			Description: executeDescription,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"toolId": map[string]any{
						"type":        "string",
						"description": "The toolId field from a prior discover result.",
					},
					"method": map[string]any{
						"type":        "string",
						"description": "The method field from a prior discover result.",
					},
					"args": map[string]any{
						"type":        "object",
						"description": "Arguments to pass to the downstream tool, matching its inputSchema.",
					},
				},
				Required: []string{"toolId", "method", "args"},
			},
		},
	}
}
