// Package mock provides test double implementations of the ai interfaces.
//
// The mocks allow tests to run without external AI services and with
// deterministic behavior:
//
//   - MockEmbedder: unit vectors derived from an FNV hash of the text
//   - MockGenerator: canned answers, or injected behavior
//   - MockProvider: aggregates both
//
// Behavior injection uses function fields:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
package mock
