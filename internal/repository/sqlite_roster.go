package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteRosterRepo stores classroom membership for the local roster.
type SQLiteRosterRepo struct {
	db db.DBTX
}

func NewSQLiteRosterRepo(db db.DBTX) *SQLiteRosterRepo {
	return &SQLiteRosterRepo{db: db}
}

func (r *SQLiteRosterRepo) Upsert(ctx context.Context, m *domain.RosterMember) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO classroom_members (classroom_id, profile_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(classroom_id, profile_id) DO UPDATE SET role = excluded.role`,
		m.ClassroomID, m.ProfileID, string(m.Role), formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting classroom member: %w", err)
	}
	return nil
}

func (r *SQLiteRosterRepo) Get(ctx context.Context, classroomID, profileID string) (*domain.RosterMember, error) {
	var m domain.RosterMember
	var role, createdAt string
	err := r.db.QueryRowContext(ctx, `SELECT classroom_id, profile_id, role, created_at FROM classroom_members
		WHERE classroom_id = ? AND profile_id = ?`, classroomID, profileID).
		Scan(&m.ClassroomID, &m.ProfileID, &role, &createdAt)
	if err != nil {
		return nil, notFound(err, "classroom member", classroomID+"/"+profileID)
	}
	m.Role = domain.RosterRole(role)
	if m.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteRosterRepo) ListByClassroom(ctx context.Context, classroomID string) ([]*domain.RosterMember, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT classroom_id, profile_id, role, created_at FROM classroom_members
		WHERE classroom_id = ? ORDER BY role DESC, profile_id`, classroomID)
	if err != nil {
		return nil, fmt.Errorf("listing classroom members: %w", err)
	}
	defer rows.Close()

	var out []*domain.RosterMember
	for rows.Next() {
		var m domain.RosterMember
		var role, createdAt string
		if err := rows.Scan(&m.ClassroomID, &m.ProfileID, &role, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning classroom member: %w", err)
		}
		m.Role = domain.RosterRole(role)
		if m.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classroom members: %w", err)
	}
	return out, nil
}
