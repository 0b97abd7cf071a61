// Copyright 2026 Quarry Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrTenantRequired indicates a missing tenant id.
	ErrTenantRequired = errors.New("tenant id required")

	// ErrInvalidTenantID indicates a tenant id with a forbidden character.
	ErrInvalidTenantID = errors.New("invalid tenant id")

	// ErrEmptyContent indicates empty chunk or document content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyFilename indicates a document without a filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrNegativeIndex indicates a chunk with a negative position.
	ErrNegativeIndex = errors.New("chunk index cannot be negative")

	// ErrInvalidUploadStatus indicates an unknown upload status value.
	ErrInvalidUploadStatus = errors.New("invalid upload status")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)

// ValidationError rejects an upload before any document row is created:
// bad file type, oversize content, malformed signature.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ExtractionError indicates an unreadable, encrypted, or empty document.
// It aborts the pipeline and marks the document failed.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ChunkingError indicates that chunking produced zero chunks from
// non-empty input. It aborts the pipeline and marks the document failed.
type ChunkingError struct {
	Strategy string
	Reason   string
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunking failed (%s): %s", e.Strategy, e.Reason)
}

// EmbeddingError records one failed embedding batch. It is collected and
// returned alongside whatever succeeded; it never fails the whole job.
type EmbeddingError struct {
	Batch    int
	ChunkIDs []ID
	Message  string
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch %d failed (%d chunks): %s", e.Batch, len(e.ChunkIDs), e.Message)
}

// StorageError records one failed chunk sub-batch by index range
// [Start, End). It is collected and returned alongside whatever committed.
type StorageError struct {
	Start   int
	End     int
	Message string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage sub-batch [%d,%d) failed: %s", e.Start, e.End, e.Message)
}

// GenerationError indicates the answer synthesis call failed. Retrieval
// degrades to returning the raw chunks instead of failing the request.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
