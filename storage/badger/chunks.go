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


package badger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/storage"
)

// AddChunks inserts chunk rows. The whole call is one transaction:
// validation failures surface before anything is written, and the
// returned count is either 0 or len(chunks).
func (s *Store) AddChunks(ctx context.Context, chunks ...*core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	dims := 0
	for _, chunk := range chunks {
		if chunk.TenantID == "" {
			return 0, storage.ErrTenantRequired
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return 0, err
		}
		if len(chunk.Vector) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(chunk.Vector)
		} else if len(chunk.Vector) != dims {
			return 0, fmt.Errorf("%w: %d vs %d", storage.ErrDimensionMismatch, dims, len(chunk.Vector))
		}
	}

	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		// The owning document must exist under the chunk's own tenant;
		// a chunk claiming another tenant's document resolves to a
		// missing row here.
		docs := make(map[uuid.UUID]*core.Document)
		for _, chunk := range chunks {
			doc, ok := docs[chunk.DocumentID]
			if !ok {
				var err error
				doc, err = getDocument(tx, chunk.TenantID, chunk.DocumentID)
				if err != nil {
					return fmt.Errorf("owning document %s: %w", chunk.DocumentID, err)
				}
				docs[chunk.DocumentID] = doc
			}
			if doc.TenantID != chunk.TenantID {
				return storage.ErrTenantMismatch
			}
		}

		for _, chunk := range chunks {
			if chunk.CreatedAt.IsZero() {
				chunk.CreatedAt = time.Now().UTC()
			}
			key := makeChunkKey(chunk.TenantID, chunk.DocumentID, chunk.Index)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	return len(chunks), nil
}

// GetChunksByDocument returns the document's chunks ordered by index.
func (s *Store) GetChunksByDocument(ctx context.Context, tenant core.TenantID, docID uuid.UUID) ([]*core.Chunk, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	var chunks []*core.Chunk
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeDocumentChunkPrefix(tenant, docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Keys embed the index big-endian, so iteration order is
		// document order.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// SearchSimilar scans the tenant's chunks and ranks them by cosine
// similarity against the query vector. Chunks without a vector, or with
// a vector of a different dimensionality, are skipped.
func (s *Store) SearchSimilar(ctx context.Context, tenant core.TenantID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrVectorSearchUnavailable)
	}

	var results []*core.SearchResult
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeTenantChunkPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) != len(vector) {
				continue
			}

			// Vectors are normalized at embedding time, so the dot
			// product is the cosine similarity.
			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrVectorSearchUnavailable, err)
	}

	// Stable: ties keep scan order rather than picking up an arbitrary
	// secondary ordering.
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// SearchText scans the tenant's chunks for a case-insensitive substring
// match, up to limit results.
func (s *Store) SearchText(ctx context.Context, tenant core.TenantID, query string, limit int) ([]*core.Chunk, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	var matches []*core.Chunk
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeTenantChunkPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				if strings.Contains(strings.ToLower(chunk.Content), query) {
					matches = append(matches, chunk)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
