package service

import (
	"context"
	"strings"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
)

// rosterService manages the local classroom roster. Authentication lives
// outside this module, so enrollment is an administrative action.
type rosterService struct {
	roster *external.SQLiteRoster
}

func NewRosterService(roster *external.SQLiteRoster) RosterService {
	return &rosterService{roster: roster}
}

func (s *rosterService) Add(ctx context.Context, classroomID, profileID, role string) error {
	role = strings.ToUpper(strings.TrimSpace(role))
	var fields []domain.FieldError
	if classroomID == "" {
		fields = append(fields, domain.FieldError{Field: "classroomId", Error: "classroomId is a required field"})
	}
	if profileID == "" {
		fields = append(fields, domain.FieldError{Field: "profileId", Error: "profileId is a required field"})
	}
	if !domain.ValidRosterRoles[role] {
		fields = append(fields, domain.FieldError{Field: "role", Error: "role must be TEACHER or STUDENT"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return s.roster.Add(ctx, classroomID, profileID, domain.RosterRole(role))
}

func (s *rosterService) List(ctx context.Context, classroomID string) ([]*domain.RosterMember, error) {
	return s.roster.List(ctx, classroomID)
}
