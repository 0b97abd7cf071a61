package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/storage"
)

const chunkColumns = `id, document_id, tenant_id, content, chunk_index, embedding, metadata, created_at`

// AddChunks inserts chunk rows in one batch. The whole call is a single
// transaction: the returned count is either 0 or len(chunks).
func (s *Store) AddChunks(ctx context.Context, chunks ...*core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	for _, chunk := range chunks {
		if chunk.TenantID == "" {
			return 0, storage.ErrTenantRequired
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return 0, err
		}
		if len(chunk.Vector) > 0 && len(chunk.Vector) != s.dimensions {
			return 0, fmt.Errorf("%w: expected %d, got %d", storage.ErrDimensionMismatch, s.dimensions, len(chunk.Vector))
		}
	}

	tx, err := s.db(ctx).Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	// The owning document must exist under the chunk's own tenant.
	seen := make(map[uuid.UUID]core.TenantID)
	for _, chunk := range chunks {
		tenant, ok := seen[chunk.DocumentID]
		if !ok {
			err := tx.QueryRow(ctx,
				`SELECT tenant_id FROM documents WHERE tenant_id = $1 AND id = $2`,
				string(chunk.TenantID), chunk.DocumentID,
			).Scan(&tenant)
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, fmt.Errorf("owning document %s: %w", chunk.DocumentID, storage.ErrNotFound)
			}
			if err != nil {
				return 0, fmt.Errorf("failed to check owning document: %w", err)
			}
			seen[chunk.DocumentID] = tenant
		}
		if tenant != chunk.TenantID {
			return 0, storage.ErrTenantMismatch
		}
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		var embedding *pgvector.Vector
		if len(chunk.Vector) > 0 {
			v := pgvector.NewVector(chunk.Vector)
			embedding = &v
		}
		batch.Queue(
			`INSERT INTO chunks (`+chunkColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
			 ON CONFLICT (tenant_id, document_id, chunk_index) DO UPDATE
			 SET id = EXCLUDED.id, content = EXCLUDED.content,
			     embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
			int64(chunk.Id), chunk.DocumentID, string(chunk.TenantID), chunk.Content,
			chunk.Index, embedding, chunk.Metadata, nullableTime(chunk.CreatedAt),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	return len(chunks), nil
}

// GetChunksByDocument returns the document's chunks ordered by index.
func (s *Store) GetChunksByDocument(ctx context.Context, tenant core.TenantID, docID uuid.UUID) ([]*core.Chunk, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	rows, err := s.db(ctx).Query(ctx,
		`SELECT `+chunkColumns+` FROM chunks
		 WHERE tenant_id = $1 AND document_id = $2
		 ORDER BY chunk_index ASC`,
		string(tenant), docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, nil)
}

// SearchSimilar ranks the tenant's chunks by cosine similarity using the
// pgvector distance operator. Any failure is reported as
// ErrVectorSearchUnavailable so callers can degrade to SearchText.
func (s *Store) SearchSimilar(ctx context.Context, tenant core.TenantID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrVectorSearchUnavailable)
	}

	query := pgvector.NewVector(vector)
	rows, err := s.db(ctx).Query(ctx,
		`SELECT `+chunkColumns+`, 1 - (embedding <=> $2) AS similarity
		 FROM chunks
		 WHERE tenant_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		string(tenant), query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrVectorSearchUnavailable, err)
	}
	defer rows.Close()

	var results []*core.SearchResult
	var scores []float32
	chunks, err := scanChunks(rows, &scores)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrVectorSearchUnavailable, err)
	}

	for i, chunk := range chunks {
		if scores[i] < minSimilarity {
			continue
		}
		results = append(results, &core.SearchResult{Chunk: chunk, Score: scores[i]})
	}
	return results, nil
}

// SearchText scans the tenant's chunks for a case-insensitive substring
// match.
func (s *Store) SearchText(ctx context.Context, tenant core.TenantID, query string, limit int) ([]*core.Chunk, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}
	if query == "" {
		return nil, nil
	}

	rows, err := s.db(ctx).Query(ctx,
		`SELECT `+chunkColumns+` FROM chunks
		 WHERE tenant_id = $1 AND strpos(lower(content), lower($2)) > 0
		 ORDER BY document_id, chunk_index
		 LIMIT $3`,
		string(tenant), query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, nil)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// scanChunks reads chunk rows; when scores is non-nil each row is
// expected to carry a trailing similarity column.
func scanChunks(rows pgx.Rows, scores *[]float32) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	for rows.Next() {
		var chunk core.Chunk
		var id int64
		var tenant string
		var embedding *pgvector.Vector

		dests := []any{
			&id, &chunk.DocumentID, &tenant, &chunk.Content,
			&chunk.Index, &embedding, &chunk.Metadata, &chunk.CreatedAt,
		}
		var score float32
		if scores != nil {
			dests = append(dests, &score)
		}

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		chunk.Id = core.ID(id)
		chunk.TenantID = core.TenantID(tenant)
		if embedding != nil {
			chunk.Vector = embedding.Slice()
		}
		chunks = append(chunks, &chunk)
		if scores != nil {
			*scores = append(*scores, score)
		}
	}
	return chunks, rows.Err()
}
