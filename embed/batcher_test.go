package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/ai/mock"
	"github.com/quarrydocs/quarry/core"
)

func testChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		content := fmt.Sprintf("chunk number %d content", i)
		chunks[i] = &core.Chunk{
			Id:      core.IDFromContent(content),
			Content: content,
			Index:   i,
		}
	}
	return chunks
}

func TestNewBatcher_RequiresEmbedder(t *testing.T) {
	_, err := NewBatcher(nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)
}

func TestEmbedChunks_AllBatchesSucceed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	batcher, err := NewBatcher(embedder, WithBatchSize(2))
	require.NoError(t, err)

	chunks := testChunks(5)
	result, err := batcher.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Len(t, result.Embeddings, 5)
	assert.Equal(t, 0, result.Failed())
	assert.Equal(t, 3, embedder.CallCount(), "5 chunks at batch size 2 means 3 provider calls")

	for i, c := range chunks {
		require.Len(t, c.Vector, mock.DefaultDimensions, "chunk %d", i)
		assert.InDelta(t, 1.0, magnitude(c.Vector), 1e-5, "chunk %d vector must be unit length", i)
		assert.Equal(t, "mock-embedder", c.Metadata[core.MetaModel])
		assert.Equal(t, "8", c.Metadata[core.MetaDimensions])
	}
}

func TestEmbedChunks_Empty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	batcher, err := NewBatcher(embedder)
	require.NoError(t, err)

	result, err := batcher.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Empty(t, result.Embeddings)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEmbedChunks_IsolatesBatchFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, "poison") {
				return nil, errors.New("provider rejected input")
			}
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, embedder.Dims)
		}
		return vectors, nil
	}

	batcher, err := NewBatcher(embedder, WithBatchSize(2), WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	chunks := testChunks(6)
	chunks[2].Content = "poison pill"
	chunks[2].Id = core.IDFromContent("poison pill")

	result, err := batcher.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err, "a failed batch must not fail the run")

	assert.False(t, result.Complete())
	assert.Len(t, result.Embeddings, 4, "the two other batches still embed")
	assert.Equal(t, 2, result.Failed())

	require.Len(t, result.Errors, 1)
	batchErr := result.Errors[0]
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, []core.ID{chunks[2].Id, chunks[3].Id}, batchErr.ChunkIDs)
	assert.Contains(t, batchErr.Message, "provider rejected input")

	assert.Nil(t, chunks[2].Vector, "failed chunks carry no vector")
	assert.Nil(t, chunks[3].Vector)
	assert.NotNil(t, chunks[0].Vector)
	assert.NotNil(t, chunks[4].Vector)
}

func TestEmbedChunks_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporarily unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, embedder.Dims)
		}
		return vectors, nil
	}

	batcher, err := NewBatcher(embedder, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	result, err := batcher.EmbedChunks(context.Background(), testChunks(2))
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Equal(t, 3, attempts)
}

func TestEmbedChunks_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{mock.DeterministicVector("only one", embedder.Dims)}, nil
	}

	batcher, err := NewBatcher(embedder, WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	result, err := batcher.EmbedChunks(context.Background(), testChunks(3))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "count mismatch")
	assert.Empty(t, result.Embeddings)
}

func TestEmbedChunks_DimensionMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0} // wrong size, embedder reports 8
		}
		return vectors, nil
	}

	batcher, err := NewBatcher(embedder, WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	result, err := batcher.EmbedChunks(context.Background(), testChunks(2))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "dimension mismatch")
}

func TestEmbedChunks_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := mock.NewMockEmbedder()
	batcher, err := NewBatcher(embedder)
	require.NoError(t, err)

	result, err := batcher.EmbedChunks(ctx, testChunks(4))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Embeddings)
}

func TestEmbedQuery(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	batcher, err := NewBatcher(embedder)
	require.NoError(t, err)

	vector, err := batcher.EmbedQuery(context.Background(), "what is the refund policy?")
	require.NoError(t, err)
	require.Len(t, vector, mock.DefaultDimensions)
	assert.InDelta(t, 1.0, magnitude(vector), 1e-5)

	again, err := batcher.EmbedQuery(context.Background(), "what is the refund policy?")
	require.NoError(t, err)
	assert.Equal(t, vector, again, "query embedding is deterministic for the mock")
}

func TestEmbedQuery_ProviderError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model offline")
	}

	batcher, err := NewBatcher(embedder, WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	_, err = batcher.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestEmbedQuery_DimensionGuard(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 2, 3}, nil
	}

	batcher, err := NewBatcher(embedder)
	require.NoError(t, err)

	_, err = batcher.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
