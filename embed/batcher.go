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


package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/quarrydocs/quarry/ai"
	"github.com/quarrydocs/quarry/core"
)

// Default batching and retry parameters.
const (
	DefaultBatchSize      = 100
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// Embedding is one successfully embedded chunk, with the model and
// dimension count recorded for provenance.
type Embedding struct {
	ChunkID    core.ID
	Vector     []float32
	Model      string
	Dimensions int
}

// Result collects what a batched embedding run produced. A batch that
// fails after retries lands in Errors; every other batch lands in
// Embeddings. Both can be non-empty at once.
type Result struct {
	Embeddings []Embedding
	Errors     []*core.EmbeddingError
}

// Complete reports whether every batch succeeded.
func (r *Result) Complete() bool {
	return len(r.Errors) == 0
}

// Failed returns the number of chunks whose batches failed.
func (r *Result) Failed() int {
	n := 0
	for _, e := range r.Errors {
		n += len(e.ChunkIDs)
	}
	return n
}

// Batcher turns chunk text into normalized vectors in fixed-size batches.
// A batch failure is isolated: it is recorded and the run moves on to the
// next batch rather than aborting.
type Batcher struct {
	embedder       ai.Embedder
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithBatchSize sets how many chunks are embedded per provider call.
func WithBatchSize(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithRetry sets the per-batch retry policy.
func WithRetry(maxRetries int, baseDelay time.Duration) BatcherOption {
	return func(b *Batcher) {
		if maxRetries > 0 {
			b.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			b.retryBaseDelay = baseDelay
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBatcher creates a Batcher around the given embedder.
func NewBatcher(embedder ai.Embedder, opts ...BatcherOption) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	b := &Batcher{
		embedder:       embedder,
		batchSize:      DefaultBatchSize,
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// EmbedChunks embeds every chunk's content and writes the normalized
// vector back onto the chunk, along with model provenance metadata.
//
// Chunks are processed in batches of the configured size. Each batch is
// retried with exponential backoff; a batch that still fails is recorded
// in the result and skipped, so one bad batch never sinks the rest. The
// returned error is non-nil only when the context is cancelled, in which
// case the partial result is still valid.
func (b *Batcher) EmbedChunks(ctx context.Context, chunks []*core.Chunk) (*Result, error) {
	result := &Result{}
	if len(chunks) == 0 {
		return result, nil
	}

	model := b.embedder.Model()
	dims := b.embedder.Dimensions()

	for start, batchIdx := 0, 0; start < len(chunks); start, batchIdx = start+b.batchSize, batchIdx+1 {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = b.embedder.EmbedTexts(ctx, texts)
			return embedErr
		}, b.maxRetries, b.retryBaseDelay)

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}
		if err == nil && dims > 0 {
			for _, v := range vectors {
				if len(v) != dims {
					err = fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dims, len(v))
					break
				}
			}
		}

		if err != nil {
			ids := make([]core.ID, len(batch))
			for i, c := range batch {
				ids[i] = c.Id
			}
			result.Errors = append(result.Errors, &core.EmbeddingError{
				Batch:    batchIdx,
				ChunkIDs: ids,
				Message:  err.Error(),
			})
			b.logger.Warn("embedding batch failed",
				"batch", batchIdx,
				"chunks", len(batch),
				"error", err)
			continue
		}

		for i, c := range batch {
			vec := Normalize(vectors[i])
			c.Vector = vec
			if c.Metadata == nil {
				c.Metadata = make(map[string]string)
			}
			c.Metadata[core.MetaModel] = model
			c.Metadata[core.MetaDimensions] = strconv.Itoa(len(vec))

			result.Embeddings = append(result.Embeddings, Embedding{
				ChunkID:    c.Id,
				Vector:     vec,
				Model:      model,
				Dimensions: len(vec),
			})
		}
	}

	b.logger.Debug("embedding run finished",
		"embedded", len(result.Embeddings),
		"failed", result.Failed(),
		"batches_failed", len(result.Errors))

	return result, nil
}

// EmbedQuery embeds a single query string with the same retry policy and
// normalization as chunk embedding, so query and chunk vectors live in
// the same space.
func (b *Batcher) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vector, embedErr = b.embedder.EmbedText(ctx, text)
		return embedErr
	}, b.maxRetries, b.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if dims := b.embedder.Dimensions(); dims > 0 && len(vector) != dims {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dims, len(vector))
	}

	return Normalize(vector), nil
}
