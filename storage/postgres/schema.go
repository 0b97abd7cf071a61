package postgres

import (
	"context"
	"fmt"
)

// migrate creates the extension, tables, and indexes if they do not
// exist. The embedding column width is fixed at migration time and must
// match the embedding model in use.
func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS documents (
			id          UUID PRIMARY KEY,
			tenant_id   TEXT NOT NULL,
			filename    TEXT NOT NULL,
			mime_type   TEXT NOT NULL DEFAULT '',
			size_bytes  BIGINT NOT NULL DEFAULT 0,
			status      TEXT NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			page_count  INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS documents_tenant_created_idx
			ON documents (tenant_id, created_at)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id          BIGINT NOT NULL,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			tenant_id   TEXT NOT NULL,
			content     TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			embedding   vector(%d),
			metadata    JSONB,
			created_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (tenant_id, document_id, chunk_index)
		)`, s.dimensions),

		`CREATE INDEX IF NOT EXISTS chunks_tenant_idx
			ON chunks (tenant_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	s.logger.Debug("schema migration complete", "dimensions", s.dimensions)
	return nil
}
