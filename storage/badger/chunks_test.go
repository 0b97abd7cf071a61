package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/embed"
	"github.com/quarrydocs/quarry/storage"
)

func seedChunk(doc *core.Document, index int, content string, vector []float32) *core.Chunk {
	return &core.Chunk{
		Id:         core.IDFromContent(content),
		DocumentID: doc.Id,
		TenantID:   doc.TenantID,
		Content:    content,
		Index:      index,
		Vector:     vector,
	}
}

func TestAddChunks_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	n, err := store.AddChunks(ctx,
		seedChunk(doc, 1, "second chunk", nil),
		seedChunk(doc, 0, "first chunk", nil),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	chunks, err := store.GetChunksByDocument(ctx, "acme", doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first chunk", chunks[0].Content, "chunks come back in index order")
	assert.Equal(t, "second chunk", chunks[1].Content)
	assert.False(t, chunks[0].CreatedAt.IsZero())
}

func TestAddChunks_RequiresOwningDocument(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddChunks(context.Background(), &core.Chunk{
		Id:         1,
		DocumentID: uuid.New(),
		TenantID:   "acme",
		Content:    "orphan",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddChunks_DocumentUnderOtherTenant(t *testing.T) {
	store := newTestStore(t)
	doc := seedDocument(t, store, "acme")

	// A chunk claiming another tenant cannot reach acme's document.
	_, err := store.AddChunks(context.Background(), &core.Chunk{
		Id:         1,
		DocumentID: doc.Id,
		TenantID:   "globex",
		Content:    "cross-tenant write",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddChunks_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	doc := seedDocument(t, store, "acme")

	n, err := store.AddChunks(context.Background(),
		seedChunk(doc, 0, "three dims", []float32{1, 0, 0}),
		seedChunk(doc, 1, "four dims", []float32{1, 0, 0, 0}),
	)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.Equal(t, 0, n, "nothing commits when validation fails")
}

func TestSearchSimilar_RanksAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx,
		seedChunk(doc, 0, "exact match", []float32{1, 0, 0}),
		seedChunk(doc, 1, "close match", embed.Normalize([]float32{0.9, 0.1, 0})),
		seedChunk(doc, 2, "orthogonal", []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	results, err := store.SearchSimilar(ctx, "acme", []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact match", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.Equal(t, "close match", results[1].Chunk.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchSimilar_ThresholdExcludesAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx,
		seedChunk(doc, 0, "somewhat related", embed.Normalize([]float32{0.5, 0.5, 0.7})),
	)
	require.NoError(t, err)

	results, err := store.SearchSimilar(ctx, "acme", []float32{1, 0, 0}, 0.9, 10)
	require.NoError(t, err)
	assert.Empty(t, results, "a high threshold legitimately returns zero results")
}

func TestSearchSimilar_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx,
		seedChunk(doc, 0, "a", []float32{1, 0, 0}),
		seedChunk(doc, 1, "b", embed.Normalize([]float32{0.9, 0.1, 0})),
		seedChunk(doc, 2, "c", embed.Normalize([]float32{0.8, 0.2, 0})),
	)
	require.NoError(t, err)

	results, err := store.SearchSimilar(ctx, "acme", []float32{1, 0, 0}, 0.0, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchSimilar_TenantIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acmeDoc := seedDocument(t, store, "acme")
	globexDoc := seedDocument(t, store, "globex")

	_, err := store.AddChunks(ctx, seedChunk(acmeDoc, 0, "acme secret", []float32{1, 0, 0}))
	require.NoError(t, err)
	_, err = store.AddChunks(ctx, seedChunk(globexDoc, 0, "globex secret", []float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := store.SearchSimilar(ctx, "acme", []float32{1, 0, 0}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "acme secret", results[0].Chunk.Content)
	assert.Equal(t, core.TenantID("acme"), results[0].Chunk.TenantID)
}

func TestSearchSimilar_SkipsMismatchedDimensions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx, seedChunk(doc, 0, "three dims", []float32{1, 0, 0}))
	require.NoError(t, err)
	_, err = store.AddChunks(ctx, seedChunk(doc, 1, "four dims", []float32{1, 0, 0, 0}))
	require.NoError(t, err)

	results, err := store.SearchSimilar(ctx, "acme", []float32{1, 0, 0}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "three dims", results[0].Chunk.Content)
}

func TestSearchSimilar_EmptyQueryVector(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SearchSimilar(context.Background(), "acme", nil, 0.0, 10)
	assert.ErrorIs(t, err, storage.ErrVectorSearchUnavailable)
}

func TestSearchText_SubstringScan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx,
		seedChunk(doc, 0, "The refund window is thirty days.", nil),
		seedChunk(doc, 1, "Shipping is free above fifty dollars.", nil),
	)
	require.NoError(t, err)

	matches, err := store.SearchText(ctx, "acme", "REFUND", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "refund window")
}

func TestSearchText_TenantIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acmeDoc := seedDocument(t, store, "acme")
	globexDoc := seedDocument(t, store, "globex")

	_, err := store.AddChunks(ctx, seedChunk(acmeDoc, 0, "shared keyword acme side", nil))
	require.NoError(t, err)
	_, err = store.AddChunks(ctx, seedChunk(globexDoc, 0, "shared keyword globex side", nil))
	require.NoError(t, err)

	matches, err := store.SearchText(ctx, "acme", "shared keyword", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.TenantID("acme"), matches[0].TenantID)
}

func TestSearchText_EmptyQuery(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.SearchText(context.Background(), "acme", "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchText_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	_, err := store.AddChunks(ctx,
		seedChunk(doc, 0, "keyword one", nil),
		seedChunk(doc, 1, "keyword two", nil),
		seedChunk(doc, 2, "keyword three", nil),
	)
	require.NoError(t, err)

	matches, err := store.SearchText(ctx, "acme", "keyword", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestAddChunks_RejectsDelimiterInTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	evil := seedChunk(doc, 0, "acme-eu secret chunk", nil)
	evil.TenantID = "acme:eu"
	_, err := store.AddChunks(ctx, evil)
	assert.ErrorIs(t, err, core.ErrInvalidTenantID)
}

func TestSearchText_NoPrefixExtensionLeak(t *testing.T) {
	// A tenant id that extends another tenant's id past the key delimiter
	// would share the shorter tenant's scan prefix. Such ids are rejected
	// at every write, so the shorter tenant's scans can only ever see its
	// own rows.
	store := newTestStore(t)
	ctx := context.Background()

	doc := seedDocument(t, store, "acme")
	_, err := store.AddChunks(ctx, seedChunk(doc, 0, "acme only secret", nil))
	require.NoError(t, err)

	_, err = store.AddDocument(ctx, &core.Document{
		TenantID: "acme:eu",
		Filename: "leak.pdf",
		MimeType: "application/pdf",
	})
	assert.ErrorIs(t, err, core.ErrInvalidTenantID)

	hits, err := store.SearchText(ctx, "acme", "secret", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.TenantID("acme"), hits[0].TenantID)
	assert.Equal(t, "acme only secret", hits[0].Content)
}

func TestSearchSimilar_TiesKeepScanOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, store, "acme")

	// Two interleaved score classes: even indexes match the query
	// exactly, odd indexes are further away. Within a class every score
	// is identical, so order among them must be the scan (index) order.
	exact := embed.Normalize([]float32{1, 0, 0, 0})
	near := embed.Normalize([]float32{1, 1, 0, 0})

	const total = 40
	chunks := make([]*core.Chunk, total)
	for i := 0; i < total; i++ {
		vector := exact
		if i%2 == 1 {
			vector = near
		}
		chunks[i] = seedChunk(doc, i, fmt.Sprintf("chunk number %d", i), vector)
	}
	n, err := store.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	require.Equal(t, total, n)

	results, err := store.SearchSimilar(ctx, "acme", exact, 0.25, total)
	require.NoError(t, err)
	require.Len(t, results, total)

	prevIndex := -1
	for i, result := range results {
		if i < total/2 {
			assert.InDelta(t, 1.0, result.Score, 0.001)
		} else {
			assert.Less(t, result.Score, float32(0.99))
		}
		if i == total/2 {
			prevIndex = -1 // second class restarts at its first index
		}
		assert.Greater(t, result.Chunk.Index, prevIndex,
			"equal scores must keep scan order")
		prevIndex = result.Chunk.Index
	}
}
