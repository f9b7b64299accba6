// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package lexical implements the Smart Proxy's fuzzy, in-memory search
// index over a tool's method, description, and parameter descriptions.
// The index is rebuilt wholesale on every bind; it is never mutated in
// place.
package lexical

import (
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	fieldMethod      = "method"
	fieldDescription = "description"
	fieldParameters  = "parameterDescriptions"
	fieldToolID      = "toolId"
)

// Document is one entry fed to the index. ToolID is the owning server
// name, stored but not analyzed, so results can be grouped back to a
// downstream connection.
type Document struct {
	UniqueID              string
	ToolID                string
	Method                string
	Description           string
	ParameterDescriptions string
}

// Config tunes the fuzzy query.
type Config struct {
	// Fuzzy is a real value in [0,1]; it is converted to bleve's integer
	// edit-distance fuzziness (0-2) by rounding fuzzy*2.
	Fuzzy float64
	// DescriptionBoost weights the description field relative to method
	// and parameterDescriptions, which are boosted at 1.0.
	DescriptionBoost float64
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{Fuzzy: 0.2, DescriptionBoost: 2.0}
}

// Result is a single match, with its raw (non-normalized) bleve score.
type Result struct {
	UniqueID string
	ToolID   string
	RawScore float64
}

// Index is a rebuilt-on-bind, in-memory fuzzy index.
type Index struct {
	bleveIndex bleve.Index
	cfg        Config
	size       int
}

func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldMethod, textField)
	doc.AddFieldMappingsAt(fieldDescription, textField)
	doc.AddFieldMappingsAt(fieldParameters, textField)

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	keywordField.Store = true
	doc.AddFieldMappingsAt(fieldToolID, keywordField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Build constructs a fresh, fully in-memory index over docs. A bind call
// discards the previous Index and replaces it with a new one; Build never
// mutates an existing Index.
func Build(docs []Document, cfg Config) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}

	batch := idx.NewBatch()
	for _, d := range docs {
		err := batch.Index(d.UniqueID, map[string]any{
			fieldMethod:      d.Method,
			fieldDescription: d.Description,
			fieldParameters:  d.ParameterDescriptions,
			fieldToolID:      d.ToolID,
		})
		if err != nil {
			return nil, fmt.Errorf("index tool %q: %w", d.UniqueID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("commit lexical index batch: %w", err)
	}

	return &Index{bleveIndex: idx, cfg: cfg, size: len(docs)}, nil
}

// Len reports how many documents were indexed.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.size
}

// fuzziness converts the spec's continuous [0,1] fuzzy parameter to
// bleve's discrete edit-distance fuzziness, clamped to bleve's supported
// [0,2] range.
func fuzziness(fuzzy float64) int {
	f := int(math.Round(fuzzy * 2))
	if f < 0 {
		return 0
	}
	if f > 2 {
		return 2
	}
	return f
}

func fieldQuery(field, text string, boost float64, fuzzy int) query.Query {
	match := bleve.NewMatchQuery(text)
	match.SetField(field)
	match.SetFuzziness(fuzzy)
	match.SetBoost(boost)

	prefix := bleve.NewPrefixQuery(text)
	prefix.SetField(field)
	prefix.SetBoost(boost)

	return bleve.NewDisjunctionQuery([]query.Query{match, prefix})
}

// Search runs composite against the three indexed fields, OR-combining
// per-field queries, and returns matches ordered by descending raw score.
// An empty index (Len() == 0) returns no results, not an error.
func (i *Index) Search(composite string, limit int) ([]Result, error) {
	if i == nil || i.size == 0 {
		return nil, nil
	}
	if composite == "" {
		return nil, nil
	}

	fuzzy := fuzziness(i.cfg.Fuzzy)
	top := bleve.NewDisjunctionQuery([]query.Query{
		fieldQuery(fieldMethod, composite, 1.0, fuzzy),
		fieldQuery(fieldDescription, composite, i.cfg.DescriptionBoost, fuzzy),
		fieldQuery(fieldParameters, composite, 1.0, fuzzy),
	})

	req := bleve.NewSearchRequestOptions(top, limit, 0, false)
	req.Fields = []string{fieldToolID}

	res, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		toolID, _ := hit.Fields[fieldToolID].(string)
		results = append(results, Result{
			UniqueID: hit.ID,
			ToolID:   toolID,
			RawScore: hit.Score,
		})
	}
	return results, nil
}

// Normalize divides each raw score by the top result's raw score, yielding
// values in (0, 1]. Calling Normalize on an empty slice returns nil.
func Normalize(results []Result) []Result {
	if len(results) == 0 {
		return nil
	}
	top := results[0].RawScore
	if top == 0 {
		return results
	}
	normalized := make([]Result, len(results))
	for i, r := range results {
		normalized[i] = Result{UniqueID: r.UniqueID, ToolID: r.ToolID, RawScore: r.RawScore / top}
	}
	return normalized
}

// Close releases the index's resources.
func (i *Index) Close() error {
	if i == nil || i.bleveIndex == nil {
		return nil
	}
	return i.bleveIndex.Close()
}
