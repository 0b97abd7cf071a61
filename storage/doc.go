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


// Package storage provides the storage abstraction layer for quarry.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion and retrieval pipelines. Two backends
// implement them:
//
//   - badger: an embedded BadgerDB store with brute-force similarity
//     scanning, used for local deployments and tests
//   - postgres: a pgvector-backed store for production deployments
//
// # Tenant Scoping
//
// Every repository method takes the tenant id explicitly. An id that
// exists under a different tenant is indistinguishable from one that does
// not exist; there is no cross-tenant read or write path.
//
// # Usage
//
// Create a store instance:
//
//	store, err := badger.OpenStore("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
package storage
