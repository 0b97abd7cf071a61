package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/core"
)

// DocumentRepository provides operations for managing document rows.
// Every read and write is scoped by tenant; an id that exists under a
// different tenant behaves exactly like one that does not exist.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument inserts a document row. A Nil id is replaced with a
	// fresh one; CreatedAt and UpdatedAt are set if zero. A zero status
	// defaults to pending. Returns the stored document.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by id within the tenant scope.
	// Returns ErrNotFound if it does not exist under this tenant.
	GetDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) (*core.Document, error)

	// ListDocuments returns all documents owned by the tenant, ordered
	// by creation time ascending.
	ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error)

	// UpdateDocumentStatus moves a document's upload status. The
	// forward-only lifecycle is enforced here, at the storage boundary:
	// an illegal move returns ErrInvalidStatusTransition and leaves the
	// row untouched.
	UpdateDocumentStatus(ctx context.Context, tenant core.TenantID, id uuid.UUID, status core.UploadStatus) error

	// SetChunkCount records the number of chunk rows actually committed
	// for the document. The count is ground truth: it reflects storage,
	// never the chunker's output.
	SetChunkCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error

	// SetPageCount records the page count reported by text extraction.
	SetPageCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error

	// DeleteDocument removes the document and cascades to all of its
	// chunks. Returns ErrNotFound if it does not exist under this tenant.
	DeleteDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) error
}

// ChunkRepository provides operations for managing chunk rows and
// searching them.
type ChunkRepository interface {
	// AddChunks inserts chunk rows. Each chunk's tenant must match its
	// owning document's tenant; a mismatch fails the whole call with
	// ErrTenantMismatch before anything is written. Returns the number
	// of rows committed.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) (int, error)

	// GetChunksByDocument returns the document's chunks ordered by index.
	GetChunksByDocument(ctx context.Context, tenant core.TenantID, docID uuid.UUID) ([]*core.Chunk, error)

	// SearchSimilar finds the tenant's chunks most similar to the query
	// vector. Returns chunks with similarity >= minSimilarity, up to
	// limit results, ordered by similarity score (highest first).
	// Failures are reported as ErrVectorSearchUnavailable so callers can
	// degrade to SearchText.
	SearchSimilar(ctx context.Context, tenant core.TenantID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// SearchText scans the tenant's chunks for a case-insensitive
	// substring match, up to limit results. It is the degraded fallback
	// path and carries no similarity scores.
	SearchText(ctx context.Context, tenant core.TenantID, query string, limit int) ([]*core.Chunk, error)
}

// Store is the full storage surface the pipeline runs against.
type Store interface {
	DocumentRepository
	ChunkRepository

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}
