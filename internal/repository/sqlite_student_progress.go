package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteStudentProgressRepo implements StudentProgressRepo using a SQLite database.
type SQLiteStudentProgressRepo struct {
	db db.DBTX
}

func NewSQLiteStudentProgressRepo(db db.DBTX) *SQLiteStudentProgressRepo {
	return &SQLiteStudentProgressRepo{db: db}
}

const studentProgressColumns = `id, expedition_id, student_profile_id, current_pin_id, is_completed,
	completed_at, final_score, started_at, updated_at`

func (r *SQLiteStudentProgressRepo) Create(ctx context.Context, p *domain.StudentExpeditionProgress) error {
	query := `INSERT INTO student_expedition_progress (` + studentProgressColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ExpeditionID,
		p.StudentProfileID,
		p.CurrentPinID,
		boolToInt(p.IsCompleted),
		nullableTimeToString(p.CompletedAt),
		p.FinalScore,
		formatTime(p.StartedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting student progress: %w", err)
	}
	return nil
}

func (r *SQLiteStudentProgressRepo) Get(ctx context.Context, expeditionID, studentProfileID string) (*domain.StudentExpeditionProgress, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentProgressColumns+` FROM student_expedition_progress
		WHERE expedition_id = ? AND student_profile_id = ?`, expeditionID, studentProfileID)

	var p domain.StudentExpeditionProgress
	var currentPin, completedAt sql.NullString
	var finalScore sql.NullFloat64
	var isCompleted int
	var startedAt, updatedAt string
	err := row.Scan(&p.ID, &p.ExpeditionID, &p.StudentProfileID, &currentPin, &isCompleted,
		&completedAt, &finalScore, &startedAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, "student progress", expeditionID+"/"+studentProfileID)
	}

	if currentPin.Valid {
		p.CurrentPinID = &currentPin.String
	}
	if finalScore.Valid {
		p.FinalScore = &finalScore.Float64
	}
	p.IsCompleted = intToBool(isCompleted)
	p.CompletedAt = parseNullableTime(completedAt)
	if p.StartedAt, err = parseTime("started_at", startedAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteStudentProgressRepo) Update(ctx context.Context, p *domain.StudentExpeditionProgress) error {
	query := `UPDATE student_expedition_progress SET current_pin_id = ?, is_completed = ?, completed_at = ?,
		final_score = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.CurrentPinID,
		boolToInt(p.IsCompleted),
		nullableTimeToString(p.CompletedAt),
		p.FinalScore,
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating student progress: %w", err)
	}
	return requireRow(res, "student progress", p.ID)
}
