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

// AddDocument inserts a document row within its tenant's key space.
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

	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		key := makeDocumentKey(doc.TenantID, doc.Id)
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetDocument retrieves a document by id within the tenant scope.
func (s *Store) GetDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) (*core.Document, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	var doc *core.Document
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		var err error
		doc, err = getDocument(tx, tenant, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the tenant's documents ordered by creation time.
func (s *Store) ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error) {
	if tenant == "" {
		return nil, storage.ErrTenantRequired
	}

	var docs []*core.Document
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeTenantDocumentPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
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

	// Keys sort by uuid, not time.
	slices.SortFunc(docs, func(a, b *core.Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Id.String(), b.Id.String())
	})

	return docs, nil
}

// UpdateDocumentStatus moves a document's upload status, enforcing the
// forward-only lifecycle.
func (s *Store) UpdateDocumentStatus(ctx context.Context, tenant core.TenantID, id uuid.UUID, status core.UploadStatus) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}
	if err := core.ValidateUploadStatus(status); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		doc, err := getDocument(tx, tenant, id)
		if err != nil {
			return err
		}

		if !doc.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", storage.ErrInvalidStatusTransition, doc.Status, status)
		}

		doc.Status = status
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(tenant, id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetChunkCount records the number of chunk rows committed for the document.
func (s *Store) SetChunkCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error {
	return s.updateDocument(tenant, id, func(doc *core.Document) {
		doc.ChunkCount = count
	})
}

// SetPageCount records the page count reported by extraction.
func (s *Store) SetPageCount(ctx context.Context, tenant core.TenantID, id uuid.UUID, count int) error {
	return s.updateDocument(tenant, id, func(doc *core.Document) {
		doc.PageCount = count
	})
}

// DeleteDocument removes the document and all of its chunks.
func (s *Store) DeleteDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		if _, err := getDocument(tx, tenant, id); err != nil {
			return err
		}

		// Collect chunk keys before deleting; deleting under an open
		// iterator is undefined.
		var chunkKeys [][]byte
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeDocumentChunkPrefix(tenant, id)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunkKeys = append(chunkKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range chunkKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeDocumentKey(tenant, id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (s *Store) updateDocument(tenant core.TenantID, id uuid.UUID, mutate func(*core.Document)) error {
	if tenant == "" {
		return storage.ErrTenantRequired
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		doc, err := getDocument(tx, tenant, id)
		if err != nil {
			return err
		}

		mutate(doc)
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(tenant, id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func getDocument(tx *badgerdb.Txn, tenant core.TenantID, id uuid.UUID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(tenant, id))
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
