package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
)

// authorizer answers classroom membership questions through the roster.
// Identity itself is established by the caller.
type authorizer struct {
	roster external.Roster
}

func (a authorizer) role(ctx context.Context, classroomID, profileID string) (domain.RosterRole, error) {
	if profileID == "" {
		return "", &domain.UnauthorizedError{Reason: "no acting profile"}
	}
	role, err := a.roster.Role(ctx, classroomID, profileID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", &domain.UnauthorizedError{
			ProfileID: profileID,
			Reason:    fmt.Sprintf("not a member of classroom %s", classroomID),
		}
	}
	if err != nil {
		return "", fmt.Errorf("checking roster: %w", err)
	}
	return role, nil
}

func (a authorizer) requireTeacher(ctx context.Context, classroomID, profileID string) error {
	role, err := a.role(ctx, classroomID, profileID)
	if err != nil {
		return err
	}
	if role != domain.RoleTeacher {
		return &domain.UnauthorizedError{
			ProfileID: profileID,
			Reason:    fmt.Sprintf("not a teacher of classroom %s", classroomID),
		}
	}
	return nil
}

// canView reports whether profileID may read exp. Drafts are hidden from
// students as if they did not exist.
func (a authorizer) canView(ctx context.Context, exp *domain.Expedition, profileID string) (domain.RosterRole, error) {
	role, err := a.role(ctx, exp.ClassroomID, profileID)
	if err != nil {
		return "", err
	}
	if role != domain.RoleTeacher && exp.Status == domain.ExpeditionDraft {
		return "", &domain.NotFoundError{Entity: "expedition", ID: exp.ID}
	}
	return role, nil
}

// isUserError reports whether err is a typed caller-facing domain error.
func isUserError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation, domain.ErrGraphFrozen, domain.ErrEmptyGraph, domain.ErrPinLocked,
		domain.ErrInvalidTransition, domain.ErrNotFound, domain.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
