package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteRewardGrantRepo implements RewardGrantRepo, the reward outbox.
type SQLiteRewardGrantRepo struct {
	db db.DBTX
}

func NewSQLiteRewardGrantRepo(db db.DBTX) *SQLiteRewardGrantRepo {
	return &SQLiteRewardGrantRepo{db: db}
}

const grantColumns = `id, pin_progress_id, pin_id, student_profile_id, xp, gp, early_bonus, status,
	xp_delivered, gp_delivered, attempts, last_error, created_at, delivered_at`

func (r *SQLiteRewardGrantRepo) Create(ctx context.Context, g *domain.RewardGrant) error {
	query := `INSERT INTO reward_grants (` + grantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		g.ID,
		g.PinProgressID,
		g.PinID,
		g.StudentProfileID,
		g.XP,
		g.GP,
		boolToInt(g.EarlyBonus),
		string(g.Status),
		boolToInt(g.XPDelivered),
		boolToInt(g.GPDelivered),
		g.Attempts,
		g.LastError,
		formatTime(g.CreatedAt),
		nullableTimeToString(g.DeliveredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting reward grant: %w", err)
	}
	return nil
}

func (r *SQLiteRewardGrantRepo) GetByID(ctx context.Context, id string) (*domain.RewardGrant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM reward_grants WHERE id = ?`, id)
	g, err := scanGrant(row)
	if err != nil {
		return nil, notFound(err, "reward grant", id)
	}
	return g, nil
}

func (r *SQLiteRewardGrantRepo) GetByPinProgress(ctx context.Context, pinProgressID string) (*domain.RewardGrant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM reward_grants WHERE pin_progress_id = ?`, pinProgressID)
	g, err := scanGrant(row)
	if err != nil {
		return nil, notFound(err, "reward grant", pinProgressID)
	}
	return g, nil
}

func (r *SQLiteRewardGrantRepo) Claim(ctx context.Context, id string, now, until time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reward_grants SET claimed_until = ?, attempts = attempts + 1
		WHERE id = ? AND status = 'PENDING' AND (claimed_until IS NULL OR claimed_until <= ?)`,
		formatTime(until), id, formatTime(now))
	if err != nil {
		return false, fmt.Errorf("claiming reward grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRewardGrantRepo) MarkPointsDelivered(ctx context.Context, id string, pt domain.PointType) error {
	column := "xp_delivered"
	if pt == domain.PointGP {
		column = "gp_delivered"
	}
	res, err := r.db.ExecContext(ctx, `UPDATE reward_grants SET `+column+` = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking %s delivered: %w", pt, err)
	}
	return requireRow(res, "reward grant", id)
}

func (r *SQLiteRewardGrantRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reward_grants
		SET status = 'DELIVERED', delivered_at = ?, claimed_until = NULL, last_error = ''
		WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("marking reward grant delivered: %w", err)
	}
	return requireRow(res, "reward grant", id)
}

// RecordFailure stores the error and releases the lease so a retry can pick the grant up.
func (r *SQLiteRewardGrantRepo) RecordFailure(ctx context.Context, id string, msg string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reward_grants SET last_error = ?, claimed_until = NULL WHERE id = ?`, msg, id)
	if err != nil {
		return fmt.Errorf("recording reward failure: %w", err)
	}
	return requireRow(res, "reward grant", id)
}

func (r *SQLiteRewardGrantRepo) ListPending(ctx context.Context, limit int) ([]*domain.RewardGrant, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx, `SELECT `+grantColumns+` FROM reward_grants
		WHERE status = 'PENDING' ORDER BY created_at, rowid LIMIT ?`, limit)
}

func (r *SQLiteRewardGrantRepo) ListByStudent(ctx context.Context, studentProfileID string) ([]*domain.RewardGrant, error) {
	return r.list(ctx, `SELECT `+grantColumns+` FROM reward_grants
		WHERE student_profile_id = ? ORDER BY created_at, rowid`, studentProfileID)
}

func (r *SQLiteRewardGrantRepo) list(ctx context.Context, query string, args ...any) ([]*domain.RewardGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reward grants: %w", err)
	}
	defer rows.Close()

	var out []*domain.RewardGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reward grant row: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reward grants: %w", err)
	}
	return out, nil
}

func scanGrant(s scanner) (*domain.RewardGrant, error) {
	var g domain.RewardGrant
	var status, createdAt string
	var earlyBonus, xpDelivered, gpDelivered int
	var deliveredAt sql.NullString

	err := s.Scan(
		&g.ID, &g.PinProgressID, &g.PinID, &g.StudentProfileID, &g.XP, &g.GP, &earlyBonus, &status,
		&xpDelivered, &gpDelivered, &g.Attempts, &g.LastError, &createdAt, &deliveredAt,
	)
	if err != nil {
		return nil, err
	}
	g.Status = domain.RewardStatus(status)
	g.EarlyBonus = intToBool(earlyBonus)
	g.XPDelivered = intToBool(xpDelivered)
	g.GPDelivered = intToBool(gpDelivered)
	g.DeliveredAt = parseNullableTime(deliveredAt)
	if g.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &g, nil
}
