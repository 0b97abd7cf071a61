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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found
	// within the caller's tenant scope.
	ErrNotFound = errors.New("record not found")

	// ErrTenantRequired indicates a storage call with an empty tenant id.
	ErrTenantRequired = errors.New("tenant id required")

	// ErrTenantMismatch indicates a chunk whose tenant differs from its
	// owning document's tenant.
	ErrTenantMismatch = errors.New("chunk tenant does not match document tenant")

	// ErrDimensionMismatch indicates a vector whose length differs from
	// the vectors already stored for comparison.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidStatusTransition indicates an upload status update that
	// violates the forward-only lifecycle.
	ErrInvalidStatusTransition = errors.New("invalid upload status transition")

	// ErrVectorSearchUnavailable indicates the similarity search path
	// failed; callers fall back to substring scanning.
	ErrVectorSearchUnavailable = errors.New("vector search unavailable")

	// ErrTransactionFailed indicates that a transaction failed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
