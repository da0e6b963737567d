package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/expeditions/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects Err on the Nth ExecContext call
// within a transaction, or on the first exec whose SQL contains FailOnSQL.
// It lets rollback tests break a transition at a precise write (for example
// the reward grant insert after the pin status update).
//
// ExecContext calls are counted starting at 1. Reads pass through.
type FailOnNthExecUoW struct {
	DB        *sql.DB
	FailOn    int32
	FailOnSQL string
	Err       error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failingExec{DBTX: tx, failOn: u.FailOn, failOnSQL: u.FailOnSQL, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	count     atomic.Int32
	failOn    int32
	failOnSQL string
	err       error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.count.Add(1)
	if n == f.failOn {
		return nil, f.err
	}
	if f.failOnSQL != "" && strings.Contains(query, f.failOnSQL) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
