package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embeddings.internal:9100"),
		WithEmbeddingModel("text-embedding-3-small", 1536),
		WithGenerationModel("gpt-4o-mini"),
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://embeddings.internal:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://embeddings.internal:9100/v1", cfg.GenerationHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.GenerationHost)
		})
	}
}

func TestConfig_Validate_Incomplete(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbeddingModel = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.EmbeddingDimensions = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GenerationHost = ""
	assert.Error(t, cfg.Validate())
}
