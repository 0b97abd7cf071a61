package embed

import "errors"

var (
	// ErrInvalidMaxAttempts indicates RetryWithBackoff was called with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNilEmbedder indicates a Batcher was constructed without an embedder.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrDimensionMismatch indicates the provider returned a vector whose
	// length does not match the configured embedding dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
