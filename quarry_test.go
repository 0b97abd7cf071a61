package quarry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/ai/mock"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/extract"
	"github.com/quarrydocs/quarry/ingest"
	"github.com/quarrydocs/quarry/retrieve"
	"github.com/quarrydocs/quarry/storage"
	"github.com/quarrydocs/quarry/storage/badger"
)

type stubExtractor struct {
	text  string
	pages int
}

func (s *stubExtractor) Extract(data []byte) (*extract.Result, error) {
	return &extract.Result{Text: s.text, PageCount: s.pages}, nil
}

const handbookText = "Refunds are honored within thirty days of purchase.\n\n" +
	"Support escalations go to the on-call rotation.\n\n" +
	"Remote work requires manager approval in writing."

func newTestQuarry(t *testing.T) *Quarry {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := New(store,
		WithProvider(mock.NewMockProvider()),
		WithExtractor(&stubExtractor{text: handbookText, pages: 2}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	return q
}

func pdfUpload(tenant core.TenantID, filename string) *ingest.Upload {
	return &ingest.Upload{
		TenantID: tenant,
		Filename: filename,
		Data:     []byte("%PDF-1.7\nstub"),
	}
}

func TestQuarry_IngestThenRetrieve(t *testing.T) {
	q := newTestQuarry(t)
	ctx := context.Background()

	ingested, err := q.Ingest(ctx, pdfUpload("acme", "handbook.pdf"))
	require.NoError(t, err)
	require.True(t, ingested.Success)
	assert.Equal(t, 3, ingested.ChunkCount)

	doc, err := q.Document(ctx, "acme", ingested.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.UploadStatusCompleted, doc.Status)
	assert.Equal(t, "handbook.pdf", doc.Filename)

	// The mock embedder is deterministic, so reusing a chunk's exact text
	// as the query guarantees a perfect-similarity hit.
	result, err := q.Retrieve(ctx, &retrieve.Request{
		TenantID: "acme",
		Query:    "Refunds are honored within thirty days of purchase.",
	})
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	require.NotEmpty(t, result.Chunks)
	assert.Contains(t, result.Chunks[0].Chunk.Content, "Refunds")
	assert.Equal(t, "handbook.pdf", result.Chunks[0].Filename)
	assert.NotEmpty(t, result.Response)
}

func TestQuarry_RetrieveIsTenantScoped(t *testing.T) {
	q := newTestQuarry(t)
	ctx := context.Background()

	ingested, err := q.Ingest(ctx, pdfUpload("acme", "handbook.pdf"))
	require.NoError(t, err)
	require.True(t, ingested.Success)

	result, err := q.Retrieve(ctx, &retrieve.Request{
		TenantID: "globex",
		Query:    "Refunds are honored within thirty days of purchase.",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)

	_, err = q.Document(ctx, "globex", ingested.DocumentID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestQuarry_IngestAll(t *testing.T) {
	q := newTestQuarry(t)
	ctx := context.Background()

	results := q.IngestAll(ctx, []*ingest.Upload{
		pdfUpload("acme", "first.pdf"),
		pdfUpload("acme", "second.pdf"),
	})
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)

	docs, err := q.Documents(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestQuarry_DeleteDocument(t *testing.T) {
	q := newTestQuarry(t)
	ctx := context.Background()

	ingested, err := q.Ingest(ctx, pdfUpload("acme", "handbook.pdf"))
	require.NoError(t, err)
	require.True(t, ingested.Success)

	require.NoError(t, q.DeleteDocument(ctx, "acme", ingested.DocumentID))

	_, err = q.Document(ctx, "acme", ingested.DocumentID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err := q.Store().GetChunksByDocument(ctx, "acme", ingested.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(nil, WithProvider(mock.NewMockProvider()))
	assert.ErrorIs(t, err, ingest.ErrStoreRequired)
}
