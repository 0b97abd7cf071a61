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


// Package postgres implements storage.Store on PostgreSQL with the
// pgvector extension. Similarity search uses the cosine distance
// operator; everything else is plain relational SQL with tenant_id in
// every predicate.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quarrydocs/quarry/storage"
)

// DefaultDimensions is the vector column width used when none is configured.
const DefaultDimensions = 768

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool       *pgxpool.Pool
	logger     *slog.Logger
	dimensions int
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDimensions sets the width of the embedding column. It must match
// the embedding model; the column type enforces it on every insert.
func WithDimensions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.dimensions = n
		}
	}
}

// NewStore creates a connection pool, verifies connectivity, and runs
// the schema migration.
func NewStore(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		pool:       pool,
		logger:     slog.Default(),
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// db returns the transaction carried by ctx when the call is running
// inside WithTransaction, the pool otherwise. Every query in this
// package goes through db so store calls made from a WithTransaction
// callback land in that transaction.
func (s *Store) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// WithTransaction executes fn within a transaction. The transaction is
// carried on the context handed to fn, so fn must pass that context to
// the store calls it wants inside the transaction. Nesting opens a
// savepoint on the enclosing transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db(ctx).Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
