package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for chunk records.
// It is derived from chunk content so that re-chunking identical text
// with identical options reproduces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the identical ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TenantID is the isolation boundary under which documents and chunks are
// scoped. Every storage operation takes it explicitly; there is no implicit
// scoping anywhere in the pipeline.
type TenantID string

// String returns the tenant id as a plain string.
func (t TenantID) String() string { return string(t) }

// Document represents an uploaded document owned by a single tenant.
// It is created when ingestion starts and mutated only by the ingestion
// coordinator. Deleting a document cascades to its chunks.
type Document struct {
	Id         uuid.UUID
	TenantID   TenantID
	Filename   string
	MimeType   string
	SizeBytes  int64
	Status     UploadStatus
	ChunkCount int // ground truth: number of chunk rows actually committed
	PageCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is a bounded span of a document's text stored together with its
// embedding vector. Chunks are created by the embedding/store stage and
// immutable thereafter; they are removed only via document cascade.
//
// TenantID is duplicated from the owning document for fast tenant-scoped
// filtering and must always equal the document's tenant.
type Chunk struct {
	Id         ID
	DocumentID uuid.UUID
	TenantID   TenantID
	Content    string
	Index      int // position within the document
	Vector     []float32
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Metadata keys recorded on chunks during ingestion.
const (
	MetaStrategy   = "strategy"
	MetaWordCount  = "word_count"
	MetaCharCount  = "char_count"
	MetaTokenCount = "token_count"
	MetaModel      = "embedding_model"
	MetaDimensions = "embedding_dimensions"
)

// SearchResult represents a chunk match from a similarity search.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}
