package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStatus_ForwardTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    UploadStatus
		to      UploadStatus
		allowed bool
	}{
		{"pending to processing", UploadStatusPending, UploadStatusProcessing, true},
		{"processing to completed", UploadStatusProcessing, UploadStatusCompleted, true},
		{"pending to failed", UploadStatusPending, UploadStatusFailed, true},
		{"processing to failed", UploadStatusProcessing, UploadStatusFailed, true},
		{"pending to completed skips processing", UploadStatusPending, UploadStatusCompleted, false},
		{"processing back to pending", UploadStatusProcessing, UploadStatusPending, false},
		{"completed to processing", UploadStatusCompleted, UploadStatusProcessing, false},
		{"failed to processing", UploadStatusFailed, UploadStatusProcessing, false},
		{"failed to failed", UploadStatusFailed, UploadStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestUploadStatus_Terminal(t *testing.T) {
	assert.False(t, UploadStatusPending.Terminal())
	assert.False(t, UploadStatusProcessing.Terminal())
	assert.True(t, UploadStatusCompleted.Terminal())
	assert.True(t, UploadStatusFailed.Terminal())
}

func TestParseUploadStatus_RoundTrip(t *testing.T) {
	for _, status := range []UploadStatus{
		UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed,
	} {
		parsed, err := ParseUploadStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
}

func TestParseUploadStatus_Unknown(t *testing.T) {
	_, err := ParseUploadStatus("uploading")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUploadStatus)
}

func TestStage_StatusMapping(t *testing.T) {
	assert.Equal(t, UploadStatusPending, StagePending.Status())
	assert.Equal(t, UploadStatusPending, StageValidating.Status())
	assert.Equal(t, UploadStatusProcessing, StageExtracting.Status())
	assert.Equal(t, UploadStatusProcessing, StageChunking.Status())
	assert.Equal(t, UploadStatusProcessing, StageEmbedding.Status())
	assert.Equal(t, UploadStatusProcessing, StageStoring.Status())
	assert.Equal(t, UploadStatusCompleted, StageCompleted.Status())
	assert.Equal(t, UploadStatusFailed, StageFailed.Status())
}
