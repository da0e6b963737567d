package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteLedgerRepo stores point credits for the local rewards ledger.
type SQLiteLedgerRepo struct {
	db db.DBTX
}

func NewSQLiteLedgerRepo(db db.DBTX) *SQLiteLedgerRepo {
	return &SQLiteLedgerRepo{db: db}
}

func (r *SQLiteLedgerRepo) Insert(ctx context.Context, e *domain.LedgerEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO ledger_entries (id, student_profile_id, point_type, amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_profile_id, point_type, reason) DO NOTHING`,
		e.ID, e.StudentProfileID, string(e.PointType), e.Amount, e.Reason, formatTime(e.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("inserting ledger entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteLedgerRepo) Balance(ctx context.Context, studentProfileID string, pt domain.PointType) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE student_profile_id = ? AND point_type = ?`, studentProfileID, string(pt)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing ledger: %w", err)
	}
	return total, nil
}

func (r *SQLiteLedgerRepo) ListByStudent(ctx context.Context, studentProfileID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, student_profile_id, point_type, amount, reason, created_at
		FROM ledger_entries WHERE student_profile_id = ? ORDER BY created_at, rowid`, studentProfileID)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var pt, createdAt string
		if err := rows.Scan(&e.ID, &e.StudentProfileID, &pt, &e.Amount, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.PointType = domain.PointType(pt)
		if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entries: %w", err)
	}
	return out, nil
}
