package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTx records the lifecycle calls WithTransaction makes.
type stubTx struct {
	child      *stubTx
	committed  bool
	rolledBack bool
	beginErr   error
}

var _ pgx.Tx = (*stubTx)(nil)

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) {
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	t.child = &stubTx{}
	return t.child, nil
}

func (t *stubTx) Commit(ctx context.Context) error { t.committed = true; return nil }

// Rollback after Commit is a no-op, as in pgx.
func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(ctx context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(ctx context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (t *stubTx) QueryRow(ctx context.Context, _ string, _ ...any) pgx.Row        { return nil }
func (t *stubTx) Conn() *pgx.Conn                                                 { return nil }

func txContext(tx pgx.Tx) context.Context {
	return context.WithValue(context.Background(), txKey{}, tx)
}

func TestWithTransaction_ScopesCallbackQueries(t *testing.T) {
	outer := &stubTx{}
	store := &Store{}

	err := store.WithTransaction(txContext(outer), func(ctx context.Context) error {
		// Store calls made with the callback's context must hit the
		// transaction, not the pool.
		q := store.db(ctx)
		require.Same(t, outer.child, q)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, outer.child.committed)
	assert.False(t, outer.child.rolledBack)
}

func TestWithTransaction_RollsBackOnCallbackError(t *testing.T) {
	outer := &stubTx{}
	store := &Store{}
	boom := errors.New("boom")

	err := store.WithTransaction(txContext(outer), func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, outer.child.rolledBack)
	assert.False(t, outer.child.committed)
}

func TestWithTransaction_NestedUsesEnclosingTransaction(t *testing.T) {
	outer := &stubTx{}
	store := &Store{}

	err := store.WithTransaction(txContext(outer), func(ctx context.Context) error {
		return store.WithTransaction(ctx, func(ctx context.Context) error {
			require.Same(t, outer.child.child, store.db(ctx).(*stubTx))
			return nil
		})
	})

	require.NoError(t, err)
	assert.True(t, outer.child.child.committed, "inner savepoint released")
	assert.True(t, outer.child.committed)
}
