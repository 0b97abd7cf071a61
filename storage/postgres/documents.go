package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/storage"
)

const documentColumns = `id, tenant_id, filename, mime_type, size_bytes, status, chunk_count, page_count, created_at, updated_at`

// AddDocument inserts a document row.
func (s *Store) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.TenantID == "" {
		return nil, storage.ErrTenantRequired
	}

	if doc.Id == uuid.Nil {
		doc.Id = uuid.New()
	}
	if doc.Status == 0 {
		doc.Status = core.UploadStatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.UpdatedAt = doc.CreatedAt

	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.Id, string(doc.TenantID), doc.Filename, doc.MimeType, doc.SizeBytes,
		doc.Status.String(), doc.ChunkCount, doc.PageCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return doc, nil
}

// GetDocument retrieves a document by id within the tenant scope.
func (s *Store) GetDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) (*core.Document, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	row := s.db(ctx).QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE tenant_id = $1 AND id = $2`,
		string(tenant), id,
	)
	return scanDocument(row)
}

// ListDocuments returns the tenant's documents ordered by creation time.
func (s *Store) ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	rows, err := s.db(ctx).Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE tenant_id = $1
		 ORDER BY created_at ASC, id ASC`,
		string(tenant),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus moves a document's upload status, enforcing the
// forward-only lifecycle under a row lock.
func (s *Store) UpdateDocumentStatus(ctx context.Context, tenant core.TenantID, id uuid.UUID, status core.UploadStatus) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}
	if err := core.ValidateUploadStatus(status); err != nil {
		return err
	}

	tx, err := s.db(ctx).Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT status FROM documents WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		string(tenant), id,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document status: %w", err)
	}

	from, err := core.ParseUploadStatus(current)
	if err != nil {
		return err
	}
	if !from.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", storage.ErrInvalidStatusTransition, from, status)
	}

	_, err = tx.Exec(ctx,
		`UPDATE documents SET status = $3, updated_at = $4
		 WHERE tenant_id = $1 AND id = $2`,
		string(tenant), id, status.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return tx.Commit(ctx)
}

// SetChunkCount records the number of chunk rows committed for the document.
func (s *Store) SetChunkCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error {
	return s.updateCounter(ctx, tenant, id, "chunk_count", count)
}

// SetPageCount records the page count reported by extraction.
func (s *Store) SetPageCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error {
	return s.updateCounter(ctx, tenant, id, "page_count", count)
}

// DeleteDocument removes the document; chunk rows go with it via the
// foreign key cascade.
func (s *Store) DeleteDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}

	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM documents WHERE tenant_id = $1 AND id = $2`,
		string(tenant), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) updateCounter(ctx context.Context, tenant core.TenantID, id uuid.UUID, column string, count int) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}

	// column is one of two compile-time constants, never user input.
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE documents SET `+column+` = $3, updated_at = $4
		 WHERE tenant_id = $1 AND id = $2`,
		string(tenant), id, count, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*core.Document, error) {
	var doc core.Document
	var tenant, status string

	err := row.Scan(
		&doc.Id, &tenant, &doc.Filename, &doc.MimeType, &doc.SizeBytes,
		&status, &doc.ChunkCount, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.TenantID = core.TenantID(tenant)
	doc.Status, err = core.ParseUploadStatus(status)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
