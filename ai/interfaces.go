package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Used on the retrieval path to embed queries with the same model
	// family as the stored chunks they are compared against.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails; partial-failure
	// bookkeeping across batches is the embed.Batcher's responsibility.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the embedding model, recorded as
	// provenance on every stored chunk.
	Model() string

	// Dimensions returns the fixed dimensionality of vectors produced by
	// this embedder, or 0 if unknown. A non-zero value is enforced against
	// every produced vector.
	Dimensions() int
}

// Generator produces natural-language text from a system instruction and a
// user prompt. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's completion for the given prompts.
	// The caller owns prompt construction and grounding; the generator is
	// a plain completion transport.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service used by the answer
	// synthesizer.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
