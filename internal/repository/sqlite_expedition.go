package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteExpeditionRepo implements ExpeditionRepo using a SQLite database.
type SQLiteExpeditionRepo struct {
	db db.DBTX
}

// NewSQLiteExpeditionRepo creates a new SQLiteExpeditionRepo.
func NewSQLiteExpeditionRepo(db db.DBTX) *SQLiteExpeditionRepo {
	return &SQLiteExpeditionRepo{db: db}
}

const expeditionColumns = `id, classroom_id, teacher_id, name, map_image_url, status, auto_progress,
	published_at, archived_at, created_at, updated_at`

func (r *SQLiteExpeditionRepo) Create(ctx context.Context, e *domain.Expedition) error {
	query := `INSERT INTO expeditions (` + expeditionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.ClassroomID,
		e.TeacherID,
		e.Name,
		e.MapImageURL,
		string(e.Status),
		boolToInt(e.AutoProgress),
		nullableTimeToString(e.PublishedAt),
		nullableTimeToString(e.ArchivedAt),
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting expedition: %w", err)
	}
	return nil
}

func (r *SQLiteExpeditionRepo) GetByID(ctx context.Context, id string) (*domain.Expedition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expeditionColumns+` FROM expeditions WHERE id = ?`, id)
	e, err := scanExpedition(row)
	if err != nil {
		return nil, notFound(err, "expedition", id)
	}
	return e, nil
}

func (r *SQLiteExpeditionRepo) ListByClassroom(ctx context.Context, classroomID string) ([]*domain.Expedition, error) {
	return r.list(ctx, `SELECT `+expeditionColumns+` FROM expeditions WHERE classroom_id = ? ORDER BY created_at, rowid`, classroomID)
}

func (r *SQLiteExpeditionRepo) List(ctx context.Context) ([]*domain.Expedition, error) {
	return r.list(ctx, `SELECT `+expeditionColumns+` FROM expeditions ORDER BY created_at, rowid`)
}

func (r *SQLiteExpeditionRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Expedition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expeditions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Expedition
	for rows.Next() {
		e, err := scanExpedition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expedition row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expeditions: %w", err)
	}
	return out, nil
}

func (r *SQLiteExpeditionRepo) Update(ctx context.Context, e *domain.Expedition) error {
	query := `UPDATE expeditions SET name = ?, map_image_url = ?, status = ?, auto_progress = ?,
		published_at = ?, archived_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.Name,
		e.MapImageURL,
		string(e.Status),
		boolToInt(e.AutoProgress),
		nullableTimeToString(e.PublishedAt),
		nullableTimeToString(e.ArchivedAt),
		formatTime(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating expedition: %w", err)
	}
	return requireRow(res, "expedition", e.ID)
}

func scanExpedition(s scanner) (*domain.Expedition, error) {
	var e domain.Expedition
	var status, createdAt, updatedAt string
	var autoProgress int
	var publishedAt, archivedAt sql.NullString

	err := s.Scan(
		&e.ID, &e.ClassroomID, &e.TeacherID, &e.Name, &e.MapImageURL,
		&status, &autoProgress,
		&publishedAt, &archivedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = domain.ExpeditionStatus(status)
	e.AutoProgress = intToBool(autoProgress)
	e.PublishedAt = parseNullableTime(publishedAt)
	e.ArchivedAt = parseNullableTime(archivedAt)
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
