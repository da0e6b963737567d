package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUoW(t *testing.T, path string) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(`CREATE TABLE IF NOT EXISTS counters (id TEXT PRIMARY KEY, n INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db.NewSQLiteUnitOfWork(database)
}

func counter(t *testing.T, uow *db.SQLiteUnitOfWork, id string) (int, bool) {
	t.Helper()
	var n int
	found := false
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT n FROM counters WHERE id = ?`, id).Scan(&n); err != nil {
			return nil
		}
		found = true
		return nil
	})
	require.NoError(t, err)
	return n, found
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := newUoW(t, ":memory:")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO counters (id, n) VALUES ('a', 1)`)
		return err
	})
	require.NoError(t, err)

	n, found := counter(t, uow, "a")
	assert.True(t, found)
	assert.Equal(t, 1, n)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := newUoW(t, ":memory:")
	boom := errors.New("unlock failed")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO counters (id, n) VALUES ('b', 1)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, found := counter(t, uow, "b")
	assert.False(t, found, "row should not exist after rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := newUoW(t, ":memory:")

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO counters (id, n) VALUES ('c', 1)`)
			panic("boom")
		})
	})

	_, found := counter(t, uow, "c")
	assert.False(t, found)
}

func TestWithinTx_ConcurrentWritersSerialize(t *testing.T) {
	uow := newUoW(t, filepath.Join(t.TempDir(), "uow.db"))
	require.NoError(t, uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO counters (id, n) VALUES ('x', 0)`)
		return err
	}))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
				var n int
				if err := tx.QueryRowContext(ctx, `SELECT n FROM counters WHERE id = 'x'`).Scan(&n); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `UPDATE counters SET n = ? WHERE id = 'x'`, n+1)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, _ := counter(t, uow, "x")
	assert.Equal(t, workers, n, "read-modify-write inside immediate transactions must not lose updates")
}
