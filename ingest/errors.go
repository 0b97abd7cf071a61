package ingest

import "errors"

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrBatcherRequired is returned when an embedding batcher is not provided.
	ErrBatcherRequired = errors.New("embedding batcher required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrCoordinatorRequired is returned when a coordinator is not provided.
	ErrCoordinatorRequired = errors.New("coordinator required")

	// ErrNoInput indicates an upload with no file path, raw bytes, or
	// base64 payload.
	ErrNoInput = errors.New("upload has no input source")
)
