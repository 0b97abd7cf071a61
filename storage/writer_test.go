package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/core"
)

// fakeChunkRepo counts insert calls and fails the batches it is told to.
type fakeChunkRepo struct {
	calls       int
	failBatches map[int]error
	added       []*core.Chunk
}

func (f *fakeChunkRepo) AddChunks(ctx context.Context, chunks ...*core.Chunk) (int, error) {
	call := f.calls
	f.calls++
	if err, ok := f.failBatches[call]; ok {
		return 0, err
	}
	f.added = append(f.added, chunks...)
	return len(chunks), nil
}

func (f *fakeChunkRepo) GetChunksByDocument(ctx context.Context, tenant core.TenantID, docID uuid.UUID) ([]*core.Chunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, tenant core.TenantID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return nil, nil
}

func (f *fakeChunkRepo) SearchText(ctx context.Context, tenant core.TenantID, query string, limit int) ([]*core.Chunk, error) {
	return nil, nil
}

func writerChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Id:       core.ID(i + 1),
			TenantID: "acme",
			Content:  fmt.Sprintf("chunk %d", i),
			Index:    i,
		}
	}
	return chunks
}

func TestWriteChunks_AllCommit(t *testing.T) {
	repo := &fakeChunkRepo{}
	writer := NewBatchWriter(repo, WithWriteBatchSize(4))

	result, err := writer.WriteChunks(context.Background(), writerChunks(10))
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Equal(t, 10, result.Committed)
	assert.Equal(t, 3, repo.calls, "10 chunks at batch size 4 means 3 insert calls")
	assert.Len(t, repo.added, 10)
}

func TestWriteChunks_IsolatesSubBatchFailure(t *testing.T) {
	repo := &fakeChunkRepo{
		failBatches: map[int]error{1: errors.New("disk full")},
	}
	writer := NewBatchWriter(repo, WithWriteBatchSize(4))

	result, err := writer.WriteChunks(context.Background(), writerChunks(10))
	require.NoError(t, err, "a failed sub-batch must not fail the write")

	assert.False(t, result.Complete())
	assert.Equal(t, 6, result.Committed, "batches 0 and 2 still commit")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Start)
	assert.Equal(t, 8, result.Errors[0].End)
	assert.Contains(t, result.Errors[0].Message, "disk full")
}

func TestWriteChunks_Empty(t *testing.T) {
	repo := &fakeChunkRepo{}
	writer := NewBatchWriter(repo)

	result, err := writer.WriteChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Equal(t, 0, result.Committed)
	assert.Equal(t, 0, repo.calls)
}

func TestWriteChunks_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeChunkRepo{}
	writer := NewBatchWriter(repo)

	result, err := writer.WriteChunks(ctx, writerChunks(3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Committed)
}
