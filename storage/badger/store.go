package badger

import (
	"context"

	"github.com/quarrydocs/quarry/storage"
)

// Store implements storage.Store on a BadgerDB backend. Documents and
// chunks live under tenant-segmented key prefixes; similarity search is
// a brute-force scan over the tenant's chunks, which is the right trade
// for an embedded store measured in tens of thousands of chunks.
type Store struct {
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store over an open backend. The store takes
// ownership of the backend; Close closes it.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// OpenStore opens a BadgerDB database at path and wraps it in a Store.
func OpenStore(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// WithTransaction delegates to the backend.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}
