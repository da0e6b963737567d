package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLitePinProgressRepo implements PinProgressRepo using a SQLite database.
type SQLitePinProgressRepo struct {
	db db.DBTX
}

func NewSQLitePinProgressRepo(db db.DBTX) *SQLitePinProgressRepo {
	return &SQLitePinProgressRepo{db: db}
}

const pinProgressColumns = `pp.id, pp.expedition_id, pp.pin_id, pp.student_profile_id, pp.status,
	pp.teacher_decision, pp.rewards_issued, pp.attempt_count, pp.version,
	pp.unlocked_at, pp.started_at, pp.resolved_at, pp.created_at, pp.updated_at`

func (r *SQLitePinProgressRepo) Create(ctx context.Context, pp *domain.PinProgress) error {
	query := `INSERT INTO pin_progress (id, expedition_id, pin_id, student_profile_id, status,
		teacher_decision, rewards_issued, attempt_count, version,
		unlocked_at, started_at, resolved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if pp.Version == 0 {
		pp.Version = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		pp.ID,
		pp.ExpeditionID,
		pp.PinID,
		pp.StudentProfileID,
		string(pp.Status),
		nullableBoolToValue(pp.TeacherDecision),
		boolToInt(pp.RewardsIssued),
		pp.AttemptCount,
		pp.Version,
		nullableTimeToString(pp.UnlockedAt),
		nullableTimeToString(pp.StartedAt),
		nullableTimeToString(pp.ResolvedAt),
		formatTime(pp.CreatedAt),
		formatTime(pp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting pin progress: %w", err)
	}
	return nil
}

func (r *SQLitePinProgressRepo) Get(ctx context.Context, pinID, studentProfileID string) (*domain.PinProgress, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pinProgressColumns+` FROM pin_progress pp
		WHERE pp.pin_id = ? AND pp.student_profile_id = ?`, pinID, studentProfileID)
	pp, err := scanPinProgress(row)
	if err != nil {
		return nil, notFound(err, "pin progress", pinID+"/"+studentProfileID)
	}
	return pp, nil
}

// ListByStudent returns the student's rows in pin creation order.
func (r *SQLitePinProgressRepo) ListByStudent(ctx context.Context, expeditionID, studentProfileID string) ([]*domain.PinProgress, error) {
	return r.list(ctx, `SELECT `+pinProgressColumns+` FROM pin_progress pp
		JOIN pins p ON p.id = pp.pin_id
		WHERE pp.expedition_id = ? AND pp.student_profile_id = ?
		ORDER BY p.created_at, p.rowid`, expeditionID, studentProfileID)
}

func (r *SQLitePinProgressRepo) ListAwaitingReview(ctx context.Context, expeditionID string) ([]*domain.PinProgress, error) {
	return r.list(ctx, `SELECT `+pinProgressColumns+` FROM pin_progress pp
		JOIN pins p ON p.id = pp.pin_id
		WHERE pp.expedition_id = ? AND pp.status = 'IN_PROGRESS' AND p.requires_submission = 1
		  AND EXISTS (SELECT 1 FROM submissions s WHERE s.pin_id = pp.pin_id AND s.student_profile_id = pp.student_profile_id)
		ORDER BY pp.updated_at, pp.rowid`, expeditionID)
}

func (r *SQLitePinProgressRepo) list(ctx context.Context, query string, args ...any) ([]*domain.PinProgress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pin progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.PinProgress
	for rows.Next() {
		pp, err := scanPinProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pin progress row: %w", err)
		}
		out = append(out, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pin progress: %w", err)
	}
	return out, nil
}

func (r *SQLitePinProgressRepo) Update(ctx context.Context, pp *domain.PinProgress) error {
	query := `UPDATE pin_progress SET status = ?, teacher_decision = ?, rewards_issued = ?, attempt_count = ?,
		version = version + 1, unlocked_at = ?, started_at = ?, resolved_at = ?, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(pp.Status),
		nullableBoolToValue(pp.TeacherDecision),
		boolToInt(pp.RewardsIssued),
		pp.AttemptCount,
		nullableTimeToString(pp.UnlockedAt),
		nullableTimeToString(pp.StartedAt),
		nullableTimeToString(pp.ResolvedAt),
		formatTime(pp.UpdatedAt),
		pp.ID,
		pp.Version,
	)
	if err != nil {
		return fmt.Errorf("updating pin progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return &domain.InvalidTransitionError{
			Entity:          "pin",
			ID:              pp.PinID,
			To:              string(pp.Status),
			Reason:          "progress was modified concurrently",
			AlreadyResolved: true,
		}
	}
	pp.Version++
	return nil
}

func scanPinProgress(s scanner) (*domain.PinProgress, error) {
	var pp domain.PinProgress
	var status, createdAt, updatedAt string
	var decision sql.NullInt64
	var rewardsIssued int
	var unlockedAt, startedAt, resolvedAt sql.NullString

	err := s.Scan(
		&pp.ID, &pp.ExpeditionID, &pp.PinID, &pp.StudentProfileID, &status,
		&decision, &rewardsIssued, &pp.AttemptCount, &pp.Version,
		&unlockedAt, &startedAt, &resolvedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pp.Status = domain.PinStatus(status)
	pp.TeacherDecision = nullableIntToBool(decision)
	pp.RewardsIssued = intToBool(rewardsIssued)
	pp.UnlockedAt = parseNullableTime(unlockedAt)
	pp.StartedAt = parseNullableTime(startedAt)
	pp.ResolvedAt = parseNullableTime(resolvedAt)
	if pp.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if pp.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &pp, nil
}
