package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLitePinRepo implements PinRepo using a SQLite database.
type SQLitePinRepo struct {
	db db.DBTX
}

func NewSQLitePinRepo(db db.DBTX) *SQLitePinRepo {
	return &SQLitePinRepo{db: db}
}

const pinColumns = `id, expedition_id, pin_type, name, story, pos_x, pos_y,
	requires_submission, due_date, early_submission_enabled, early_submission_date,
	reward_xp, reward_gp, early_bonus_xp, early_bonus_gp, auto_progress, created_at, updated_at`

func (r *SQLitePinRepo) Create(ctx context.Context, p *domain.Pin) error {
	query := `INSERT INTO pins (` + pinColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ExpeditionID,
		string(p.Type),
		p.Name,
		p.Story,
		p.PosX,
		p.PosY,
		boolToInt(p.RequiresSubmission),
		nullableTimeToString(p.DueDate),
		boolToInt(p.EarlySubmissionEnabled),
		nullableTimeToString(p.EarlySubmissionDate),
		p.RewardXP,
		p.RewardGP,
		p.EarlyBonusXP,
		p.EarlyBonusGP,
		nullableBoolToValue(p.AutoProgress),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting pin: %w", err)
	}
	return nil
}

func (r *SQLitePinRepo) GetByID(ctx context.Context, id string) (*domain.Pin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pinColumns+` FROM pins WHERE id = ?`, id)
	p, err := scanPin(row)
	if err != nil {
		return nil, notFound(err, "pin", id)
	}
	return p, nil
}

func (r *SQLitePinRepo) ListByExpedition(ctx context.Context, expeditionID string) ([]*domain.Pin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pinColumns+` FROM pins WHERE expedition_id = ? ORDER BY created_at, rowid`, expeditionID)
	if err != nil {
		return nil, fmt.Errorf("listing pins: %w", err)
	}
	defer rows.Close()

	var pins []*domain.Pin
	for rows.Next() {
		p, err := scanPin(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pin row: %w", err)
		}
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pins: %w", err)
	}
	return pins, nil
}

func (r *SQLitePinRepo) CountByExpedition(ctx context.Context, expeditionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pins WHERE expedition_id = ?`, expeditionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pins: %w", err)
	}
	return n, nil
}

func (r *SQLitePinRepo) Update(ctx context.Context, p *domain.Pin) error {
	query := `UPDATE pins SET pin_type = ?, name = ?, story = ?, pos_x = ?, pos_y = ?,
		requires_submission = ?, due_date = ?, early_submission_enabled = ?, early_submission_date = ?,
		reward_xp = ?, reward_gp = ?, early_bonus_xp = ?, early_bonus_gp = ?, auto_progress = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(p.Type),
		p.Name,
		p.Story,
		p.PosX,
		p.PosY,
		boolToInt(p.RequiresSubmission),
		nullableTimeToString(p.DueDate),
		boolToInt(p.EarlySubmissionEnabled),
		nullableTimeToString(p.EarlySubmissionDate),
		p.RewardXP,
		p.RewardGP,
		p.EarlyBonusXP,
		p.EarlyBonusGP,
		nullableBoolToValue(p.AutoProgress),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating pin: %w", err)
	}
	return requireRow(res, "pin", p.ID)
}

// Delete removes the pin. Its connections go with it through ON DELETE CASCADE.
func (r *SQLitePinRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pin: %w", err)
	}
	return requireRow(res, "pin", id)
}

func scanPin(s scanner) (*domain.Pin, error) {
	var p domain.Pin
	var pinType, createdAt, updatedAt string
	var requiresSubmission, earlyEnabled int
	var dueDate, earlyDate sql.NullString
	var autoProgress sql.NullInt64

	err := s.Scan(
		&p.ID, &p.ExpeditionID, &pinType, &p.Name, &p.Story, &p.PosX, &p.PosY,
		&requiresSubmission, &dueDate, &earlyEnabled, &earlyDate,
		&p.RewardXP, &p.RewardGP, &p.EarlyBonusXP, &p.EarlyBonusGP,
		&autoProgress, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = domain.PinType(pinType)
	p.RequiresSubmission = intToBool(requiresSubmission)
	p.EarlySubmissionEnabled = intToBool(earlyEnabled)
	p.DueDate = parseNullableTime(dueDate)
	p.EarlySubmissionDate = parseNullableTime(earlyDate)
	p.AutoProgress = nullableIntToBool(autoProgress)
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
