// Copyright 2026 Quarry Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieve

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/ai"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/embed"
	"github.com/quarrydocs/quarry/storage"
)

// Retrieval defaults.
const (
	DefaultLimit     = 5
	DefaultThreshold = 0.25

	// FallbackScore is the single nominal score assigned to every
	// substring-match hit in degraded mode. Fallback hits share it, so
	// they are effectively unordered among themselves; only true vector
	// scores carry ranking information.
	FallbackScore = 0.5
)

// Search modes reported in SearchParameters.
const (
	ModeVector    = "vector"
	ModeSubstring = "substring"
)

// Request is one retrieval query. Zero Limit and Threshold take the
// package defaults.
type Request struct {
	TenantID core.TenantID
	Query    string

	// DocumentIDs restricts hits to the listed documents when non-empty.
	DocumentIDs []uuid.UUID

	Limit     int
	Threshold float32

	Style            ResponseStyle
	IncludeCitations bool

	// SkipSynthesis returns ranked chunks without an answer even when
	// the engine has a synthesizer.
	SkipSynthesis bool
}

// SearchParameters echoes the effective parameters of a retrieval.
type SearchParameters struct {
	Limit     int
	Threshold float32
	Mode      string
}

// Hit is one retrieved chunk with its score and owning-document filename.
type Hit struct {
	Chunk    *core.Chunk
	Score    float32
	Filename string
}

// Result is the outcome of one retrieval. Degraded marks results produced
// by the substring fallback or returned without a synthesized answer; the
// Message says why.
type Result struct {
	Chunks           []*Hit
	Response         string
	Degraded         bool
	SearchParameters SearchParameters
	Message          string
}

// Engine retrieves tenant-scoped chunks for a query and optionally
// synthesizes a grounded answer over them. Retrieval is read-only and
// safe for unbounded concurrent use.
type Engine struct {
	store       storage.Store
	embedder    ai.Embedder
	synthesizer *Synthesizer
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSynthesizer enables answer synthesis on top of retrieval.
// Without one, the engine returns ranked chunks only.
func WithSynthesizer(synthesizer *Synthesizer) EngineOption {
	return func(e *Engine) {
		e.synthesizer = synthesizer
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(store storage.Store, embedder ai.Embedder, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Retrieve answers the request without monitoring hooks.
func (e *Engine) Retrieve(ctx context.Context, req *Request) (*Result, error) {
	return e.RetrieveWithMonitor(ctx, req, nil)
}

// RetrieveWithMonitor answers the request, reporting each stage to the
// monitor. Similarity-search unavailability degrades to a substring scan
// rather than failing; a synthesis failure degrades to raw chunks. Only
// an invalid request or an unreachable store fails the call.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, req *Request, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if req.TenantID == "" {
		return nil, ErrTenantRequired
	}
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	monitor.Start(req.Query)

	result := &Result{
		SearchParameters: SearchParameters{Limit: limit, Threshold: threshold, Mode: ModeVector},
	}

	hits, err := e.searchVector(ctx, req, limit, threshold, monitor)
	if err != nil {
		// Vector search is unavailable; scan for substring matches and
		// flag the response as degraded rather than failing it.
		e.logger.Warn("similarity search unavailable, falling back to substring match",
			"tenant", req.TenantID, "err", err)
		monitor.Fallback(err.Error())

		hits, err = e.searchText(ctx, req, limit)
		if err != nil {
			return nil, err
		}
		monitor.AfterTextSearch(len(hits))

		result.Degraded = true
		result.SearchParameters.Mode = ModeSubstring
		result.Message = "similarity search unavailable, results are substring matches"
	}

	if len(req.DocumentIDs) > 0 {
		hits = filterByDocuments(hits, req.DocumentIDs)
		monitor.AfterDocumentFilter(len(hits))
	}

	// Stable: equal scores keep their incoming order. Fallback hits all
	// share FallbackScore, so their relative order is storage order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	e.attachFilenames(ctx, req.TenantID, hits)
	result.Chunks = hits

	if len(hits) == 0 {
		result.Message = "no relevant content found for the query"
		monitor.Finish(result)
		return result, nil
	}

	if e.synthesizer != nil && !req.SkipSynthesis {
		answer, err := e.synthesizer.Synthesize(ctx, req.Query, hits, req.Style, req.IncludeCitations)
		if err != nil {
			result.Degraded = true
			result.Message = "answer generation failed, returning retrieved chunks only"
		} else {
			result.Response = answer
		}
	}

	monitor.Finish(result)
	return result, nil
}

func (e *Engine) searchVector(ctx context.Context, req *Request, limit int, threshold float32, monitor Monitor) ([]*Hit, error) {
	vector, err := e.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	vector = embed.Normalize(vector)
	monitor.AfterQueryEmbedding(len(vector))

	matches, err := e.store.SearchSimilar(ctx, req.TenantID, vector, threshold, limit)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(len(matches))

	hits := make([]*Hit, len(matches))
	for i, match := range matches {
		hits[i] = &Hit{Chunk: match.Chunk, Score: match.Score}
	}
	return hits, nil
}

func (e *Engine) searchText(ctx context.Context, req *Request, limit int) ([]*Hit, error) {
	chunks, err := e.store.SearchText(ctx, req.TenantID, req.Query, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]*Hit, len(chunks))
	for i, chunk := range chunks {
		hits[i] = &Hit{Chunk: chunk, Score: FallbackScore}
	}
	return hits, nil
}

func filterByDocuments(hits []*Hit, allowed []uuid.UUID) []*Hit {
	allow := make(map[uuid.UUID]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if allow[hit.Chunk.DocumentID] {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}

// attachFilenames resolves each hit's owning document for citation.
// A missing document leaves the filename empty rather than failing
// the retrieval.
func (e *Engine) attachFilenames(ctx context.Context, tenant core.TenantID, hits []*Hit) {
	docs := make(map[uuid.UUID]*core.Document)
	for _, hit := range hits {
		doc, ok := docs[hit.Chunk.DocumentID]
		if !ok {
			var err error
			doc, err = e.store.GetDocument(ctx, tenant, hit.Chunk.DocumentID)
			if err != nil {
				e.logger.Warn("failed to resolve document for citation",
					"document", hit.Chunk.DocumentID, "err", err)
			}
			docs[hit.Chunk.DocumentID] = doc
		}
		if doc != nil {
			hit.Filename = doc.Filename
		}
	}
}
