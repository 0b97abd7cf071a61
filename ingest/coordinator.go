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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/chunk"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/embed"
	"github.com/quarrydocs/quarry/extract"
	"github.com/quarrydocs/quarry/storage"
)

// TextExtractor extracts normalized text and a page count from binary
// document content. Defined here so tests can substitute the cgo-backed
// PDF extractor.
type TextExtractor interface {
	Extract(data []byte) (*extract.Result, error)
}

// Result is the outcome of one document ingestion. Success with a
// non-empty EmbeddingErrors or StorageErrors slice means partial
// success: the counted chunks are stored, the rest are accounted for.
type Result struct {
	Success          bool
	DocumentID       uuid.UUID
	ChunkCount       int
	EmbeddingsStored int
	PageCount        int
	Summary          string
	EmbeddingErrors  []*core.EmbeddingError
	StorageErrors    []*core.StorageError
	Err              error
}

// Coordinator drives one document through the ingestion pipeline:
// validate, extract, chunk, embed, store. Stages run strictly
// sequentially; the document's upload status is persisted at each major
// transition so progress is externally observable. A failed document is
// terminal and requires a fresh upload.
type Coordinator struct {
	store           storage.Store
	batcher         *embed.Batcher
	writer          *storage.BatchWriter
	extractor       TextExtractor
	maxUploadBytes  int64
	defaultStrategy chunk.Strategy
	logger          *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxUploadBytes caps the decoded upload size.
func WithMaxUploadBytes(n int64) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithDefaultStrategy sets the strategy used when an upload names none.
func WithDefaultStrategy(s chunk.Strategy) CoordinatorOption {
	return func(c *Coordinator) {
		c.defaultStrategy = s
	}
}

// WithWriteBatchSize sets the chunk insert sub-batch size.
func WithWriteBatchSize(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.writer = storage.NewBatchWriter(c.store, storage.WithWriteBatchSize(n), storage.WithWriterLogger(c.logger))
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(store storage.Store, batcher *embed.Batcher, extractor TextExtractor, opts ...CoordinatorOption) (*Coordinator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if batcher == nil {
		return nil, ErrBatcherRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	c := &Coordinator{
		store:           store,
		batcher:         batcher,
		extractor:       extractor,
		maxUploadBytes:  DefaultMaxUploadBytes,
		defaultStrategy: chunk.StrategyParagraph,
		logger:          slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.writer == nil {
		c.writer = storage.NewBatchWriter(c.store, storage.WithWriterLogger(c.logger))
	}
	return c, nil
}

// Run ingests one document. The returned Result always carries the
// explicit Success flag; the error mirrors Result.Err for callers that
// prefer error flow.
func (c *Coordinator) Run(ctx context.Context, upload *Upload) (*Result, error) {
	stage := core.StageValidating
	logger := c.logger.With("tenant", upload.TenantID, "filename", upload.Filename)

	data, err := upload.read()
	if err == nil {
		err = validate(upload, data, c.maxUploadBytes)
	}
	if err != nil {
		// Rejected before any document row exists.
		logger.Warn("upload rejected", "stage", stage, "error", err)
		return fail(nil, err), err
	}

	mimeType := upload.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	doc, err := c.store.AddDocument(ctx, &core.Document{
		TenantID:  upload.TenantID,
		Filename:  upload.Filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
	})
	if err != nil {
		return fail(nil, err), err
	}
	logger = logger.With("document", doc.Id)

	if err := c.transition(ctx, doc, core.UploadStatusProcessing); err != nil {
		return fail(doc, err), err
	}

	stage = core.StageExtracting
	extracted, err := c.extractor.Extract(data)
	if err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	if err := c.store.SetPageCount(ctx, doc.TenantID, doc.Id, extracted.PageCount); err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	logger.Debug("text extracted", "pages", extracted.PageCount, "chars", len(extracted.Text))

	stage = core.StageChunking
	strategy := upload.Strategy
	if strategy == 0 {
		strategy = c.defaultStrategy
	}
	pieces, err := chunk.Split(extracted.Text, strategy, upload.Chunking)
	if err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	if len(pieces) == 0 {
		err := &core.ChunkingError{Strategy: strategy.String(), Reason: "zero chunks produced from non-empty input"}
		return c.abort(ctx, logger, doc, stage, err)
	}
	logger.Debug("text chunked", "strategy", strategy, "chunks", len(pieces))

	chunks := buildChunks(doc, pieces, strategy)

	stage = core.StageEmbedding
	embedded, err := c.batcher.EmbedChunks(ctx, chunks)
	if err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	toStore := withVectors(chunks)
	if len(toStore) == 0 {
		err := fmt.Errorf("all %d embedding batches failed", len(embedded.Errors))
		result, _ := c.abort(ctx, logger, doc, stage, err)
		result.EmbeddingErrors = embedded.Errors
		return result, err
	}

	stage = core.StageStoring
	written, err := c.writer.WriteChunks(ctx, toStore)
	if err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	if err := c.store.SetChunkCount(ctx, doc.TenantID, doc.Id, written.Committed); err != nil {
		return c.abort(ctx, logger, doc, stage, err)
	}
	if written.Committed == 0 {
		err := fmt.Errorf("no chunk rows committed")
		result, _ := c.abort(ctx, logger, doc, stage, err)
		result.EmbeddingErrors = embedded.Errors
		result.StorageErrors = written.Errors
		return result, err
	}

	if err := c.transition(ctx, doc, core.UploadStatusCompleted); err != nil {
		return fail(doc, err), err
	}

	result := &Result{
		Success:          true,
		DocumentID:       doc.Id,
		ChunkCount:       written.Committed,
		EmbeddingsStored: len(embedded.Embeddings),
		PageCount:        extracted.PageCount,
		EmbeddingErrors:  embedded.Errors,
		StorageErrors:    written.Errors,
	}
	result.Summary = summarize(len(pieces), result)

	logger.Info("document ingested",
		"chunks", result.ChunkCount,
		"embedding_failures", len(result.EmbeddingErrors),
		"storage_failures", len(result.StorageErrors))

	return result, nil
}

// abort marks the document failed and reports the stage that sank it.
func (c *Coordinator) abort(ctx context.Context, logger *slog.Logger, doc *core.Document, stage core.Stage, cause error) (*Result, error) {
	logger.Warn("ingestion failed", "stage", stage, "error", cause)

	if err := c.store.UpdateDocumentStatus(ctx, doc.TenantID, doc.Id, core.UploadStatusFailed); err != nil {
		logger.Error("failed to mark document failed", "error", err)
	}
	return fail(doc, cause), cause
}

func (c *Coordinator) transition(ctx context.Context, doc *core.Document, status core.UploadStatus) error {
	return c.store.UpdateDocumentStatus(ctx, doc.TenantID, doc.Id, status)
}

func fail(doc *core.Document, err error) *Result {
	result := &Result{Success: false, Err: err, Summary: err.Error()}
	if doc != nil {
		result.DocumentID = doc.Id
	}
	return result
}

func buildChunks(doc *core.Document, pieces []chunk.Piece, strategy chunk.Strategy) []*core.Chunk {
	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		metadata := map[string]string{
			core.MetaStrategy:  strategy.String(),
			core.MetaWordCount: strconv.Itoa(piece.WordCount),
			core.MetaCharCount: strconv.Itoa(piece.CharCount),
		}
		if piece.TokenCount > 0 {
			metadata[core.MetaTokenCount] = strconv.Itoa(piece.TokenCount)
		}

		chunks[i] = &core.Chunk{
			Id:         piece.Id,
			DocumentID: doc.Id,
			TenantID:   doc.TenantID,
			Content:    piece.Content,
			Index:      piece.Index,
			Metadata:   metadata,
		}
	}
	return chunks
}

// withVectors filters to the chunks whose embedding batch succeeded.
func withVectors(chunks []*core.Chunk) []*core.Chunk {
	out := make([]*core.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Vector) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func summarize(attempted int, r *Result) string {
	if len(r.EmbeddingErrors) == 0 && len(r.StorageErrors) == 0 {
		return fmt.Sprintf("stored %d chunks across %d pages", r.ChunkCount, r.PageCount)
	}
	return fmt.Sprintf("stored %d of %d chunks (%d embedding batch failures, %d storage sub-batch failures)",
		r.ChunkCount, attempted, len(r.EmbeddingErrors), len(r.StorageErrors))
}
