package external

import (
	"context"
	"time"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/repository"
)

// SQLiteRoster is a Roster backed by the classroom_members table.
type SQLiteRoster struct {
	repo repository.RosterRepo
}

func NewSQLiteRoster(database db.DBTX) *SQLiteRoster {
	return &SQLiteRoster{repo: repository.NewSQLiteRosterRepo(database)}
}

func (r *SQLiteRoster) Role(ctx context.Context, classroomID, profileID string) (domain.RosterRole, error) {
	m, err := r.repo.Get(ctx, classroomID, profileID)
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// Add enrolls a profile. Re-adding changes the role.
func (r *SQLiteRoster) Add(ctx context.Context, classroomID, profileID string, role domain.RosterRole) error {
	return r.repo.Upsert(ctx, &domain.RosterMember{
		ClassroomID: classroomID,
		ProfileID:   profileID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	})
}

func (r *SQLiteRoster) List(ctx context.Context, classroomID string) ([]*domain.RosterMember, error) {
	return r.repo.ListByClassroom(ctx, classroomID)
}
