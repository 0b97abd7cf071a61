package storage

import (
	"context"
	"log/slog"

	"github.com/quarrydocs/quarry/core"
)

// DefaultWriteBatchSize is how many chunk rows go into one insert call.
const DefaultWriteBatchSize = 100

// WriteResult reports what a batched chunk write committed. Committed is
// the number of rows actually stored; a sub-batch that failed lands in
// Errors with its index range.
type WriteResult struct {
	Committed int
	Errors    []*core.StorageError
}

// Complete reports whether every sub-batch committed.
func (r *WriteResult) Complete() bool {
	return len(r.Errors) == 0
}

// BatchWriter inserts chunks in fixed-size sub-batches, isolating
// sub-batch failures the same way the embedding stage isolates batch
// failures: record, skip, continue.
type BatchWriter struct {
	store     ChunkRepository
	batchSize int
	logger    *slog.Logger
}

// WriterOption configures a BatchWriter.
type WriterOption func(*BatchWriter)

// WithWriteBatchSize sets how many chunks are inserted per call.
func WithWriteBatchSize(n int) WriterOption {
	return func(w *BatchWriter) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithWriterLogger sets the structured logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *BatchWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewBatchWriter creates a BatchWriter over the given chunk repository.
func NewBatchWriter(store ChunkRepository, opts ...WriterOption) *BatchWriter {
	w := &BatchWriter{
		store:     store,
		batchSize: DefaultWriteBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteChunks inserts the chunks in sub-batches. A failed sub-batch is
// recorded by index range and skipped; the rest still commit. The
// returned error is non-nil only on context cancellation, in which case
// the partial result remains valid.
func (w *BatchWriter) WriteChunks(ctx context.Context, chunks []*core.Chunk) (*WriteResult, error) {
	result := &WriteResult{}

	for start := 0; start < len(chunks); start += w.batchSize {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		end := start + w.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		n, err := w.store.AddChunks(ctx, chunks[start:end]...)
		result.Committed += n
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, &core.StorageError{
				Start:   start,
				End:     end,
				Message: err.Error(),
			})
			w.logger.Warn("chunk sub-batch failed",
				"start", start,
				"end", end,
				"error", err)
		}
	}

	return result, nil
}
