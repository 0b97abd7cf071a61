package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:         uuid.New(),
		TenantID:   "acme",
		Filename:   "handbook.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  482133,
		Status:     core.UploadStatusCompleted,
		ChunkCount: 37,
		PageCount:  12,
		CreatedAt:  now,
		UpdatedAt:  now.Add(3 * time.Second),
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	chunk := &core.Chunk{
		Id:         core.IDFromContent("0:The refund window is thirty days."),
		DocumentID: uuid.New(),
		TenantID:   "acme",
		Content:    "The refund window is thirty days.",
		Index:      4,
		Vector:     []float32{0.25, -0.5, 0.125, 0.75},
		Metadata: map[string]string{
			core.MetaStrategy:  "paragraph",
			core.MetaWordCount: "6",
			core.MetaModel:     "embeddinggemma",
		},
		CreatedAt: now,
	}

	data := MarshalChunk(chunk)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestMarshalChunk_NoVectorNoMetadata(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ID(7),
		DocumentID: uuid.New(),
		TenantID:   "acme",
		Content:    "bare chunk",
		Index:      0,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
	assert.Nil(t, decoded.Vector)
	assert.Nil(t, decoded.Metadata)
}

func TestMarshalChunk_Deterministic(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ID(1),
		DocumentID: uuid.MustParse("4b2b7b36-9d8f-4a8e-bd5e-111111111111"),
		TenantID:   "acme",
		Content:    "same bytes every time",
		Metadata: map[string]string{
			"b": "2",
			"a": "1",
			"c": "3",
		},
		CreatedAt: time.UnixMicro(1700000000000000).UTC(),
	}

	first := MarshalChunk(chunk)
	second := MarshalChunk(chunk)
	assert.Equal(t, first, second, "metadata must marshal in sorted key order")
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		Id:        uuid.New(),
		TenantID:  "acme",
		Filename:  "a.pdf",
		Status:    core.UploadStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}
