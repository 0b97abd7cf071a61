package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, a canned grounded-style answer is returned.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Returns the concrete type to allow behavior injection and assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the injected function's result, or a canned answer.
func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}

	return "Based on the provided context, here is the answer.", nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.GenerateFunc = nil
}
