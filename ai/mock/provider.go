package mock

import "github.com/quarrydocs/quarry/ai"

// MockProvider is a test double for ai.Provider aggregating a mock
// embedder and a mock generator.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider backed by fresh mocks.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockGenerator(),
	}
}

// Embedder returns the mock embedder as the ai.Embedder interface.
func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

// Generator returns the mock generator as the ai.Generator interface.
func (p *MockProvider) Generator() ai.Generator { return p.generator }

// Close is a no-op.
func (p *MockProvider) Close() error { return nil }

// GetMockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder { return p.embedder }

// GetMockGenerator returns the concrete mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator { return p.generator }
