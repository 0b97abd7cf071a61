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
	"fmt"
	"strings"
)

// ValidateTenantID validates a tenant identifier.
//
// Tenant ids are embedded as a segment of colon-delimited storage keys.
// An id containing the delimiter would make one tenant's key prefix
// match another tenant's keys, so it is rejected at every write.
func ValidateTenantID(tenant TenantID) error {
	if tenant == "" {
		return ErrTenantRequired
	}
	if strings.ContainsRune(string(tenant), ':') {
		return fmt.Errorf("%w: %q must not contain ':'", ErrInvalidTenantID, tenant)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - TenantID must pass ValidateTenantID
//   - Filename must not be empty
//   - Status must be a known UploadStatus
//   - ChunkCount must not be negative
//
// NOT validated (populated by the pipeline):
//   - PageCount (set by the extractor)
//   - ChunkCount accuracy (maintained by the store adapter)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateTenantID(doc.TenantID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateUploadStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.ChunkCount < 0 {
		return fmt.Errorf("%w: negative chunk count %d", ErrInvalidDocument, doc.ChunkCount)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - TenantID must pass ValidateTenantID
//   - Content must not be empty
//   - Index must not be negative
//
// NOT validated here:
//   - Vector (dimensionality is checked against the store)
//   - TenantID matching the owning document (enforced by repositories)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if err := ValidateTenantID(chunk.TenantID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeIndex)
	}

	return nil
}

// ValidateUploadStatus validates that an UploadStatus has a known value.
func ValidateUploadStatus(status UploadStatus) error {
	switch status {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidUploadStatus, status)
	}
}
