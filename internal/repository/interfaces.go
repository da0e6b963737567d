package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

type ExpeditionRepo interface {
	Create(ctx context.Context, e *domain.Expedition) error
	GetByID(ctx context.Context, id string) (*domain.Expedition, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]*domain.Expedition, error)
	List(ctx context.Context) ([]*domain.Expedition, error)
	Update(ctx context.Context, e *domain.Expedition) error
}

type PinRepo interface {
	Create(ctx context.Context, p *domain.Pin) error
	GetByID(ctx context.Context, id string) (*domain.Pin, error)
	// ListByExpedition returns pins in creation order.
	ListByExpedition(ctx context.Context, expeditionID string) ([]*domain.Pin, error)
	CountByExpedition(ctx context.Context, expeditionID string) (int, error)
	Update(ctx context.Context, p *domain.Pin) error
	Delete(ctx context.Context, id string) error
}

type ConnectionRepo interface {
	Create(ctx context.Context, c *domain.Connection) error
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	Exists(ctx context.Context, fromPinID, toPinID string) (bool, error)
	// ListByExpedition returns connections in creation order.
	ListByExpedition(ctx context.Context, expeditionID string) ([]*domain.Connection, error)
	Update(ctx context.Context, c *domain.Connection) error
	Delete(ctx context.Context, id string) error
}

type StudentProgressRepo interface {
	Create(ctx context.Context, p *domain.StudentExpeditionProgress) error
	Get(ctx context.Context, expeditionID, studentProfileID string) (*domain.StudentExpeditionProgress, error)
	Update(ctx context.Context, p *domain.StudentExpeditionProgress) error
}

type PinProgressRepo interface {
	Create(ctx context.Context, pp *domain.PinProgress) error
	Get(ctx context.Context, pinID, studentProfileID string) (*domain.PinProgress, error)
	ListByStudent(ctx context.Context, expeditionID, studentProfileID string) ([]*domain.PinProgress, error)
	// Update persists pp if its version still matches the stored row and
	// increments pp.Version. A stale version yields an InvalidTransitionError.
	Update(ctx context.Context, pp *domain.PinProgress) error
	// ListAwaitingReview returns IN_PROGRESS rows on submission pins of the expedition.
	ListAwaitingReview(ctx context.Context, expeditionID string) ([]*domain.PinProgress, error)
}

type SubmissionRepo interface {
	Create(ctx context.Context, s *domain.Submission) error
	Latest(ctx context.Context, pinID, studentProfileID string) (*domain.Submission, error)
	List(ctx context.Context, pinID, studentProfileID string) ([]*domain.Submission, error)
}

type RewardGrantRepo interface {
	Create(ctx context.Context, g *domain.RewardGrant) error
	GetByID(ctx context.Context, id string) (*domain.RewardGrant, error)
	GetByPinProgress(ctx context.Context, pinProgressID string) (*domain.RewardGrant, error)
	// Claim leases a PENDING grant until the given time. It reports false when
	// the grant is delivered or another worker holds an unexpired lease.
	Claim(ctx context.Context, id string, now, until time.Time) (bool, error)
	MarkPointsDelivered(ctx context.Context, id string, pt domain.PointType) error
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	RecordFailure(ctx context.Context, id string, msg string) error
	ListPending(ctx context.Context, limit int) ([]*domain.RewardGrant, error)
	ListByStudent(ctx context.Context, studentProfileID string) ([]*domain.RewardGrant, error)
}

type LedgerRepo interface {
	// Insert records a credit. It reports false when an entry with the same
	// (student, point type, reason) already exists.
	Insert(ctx context.Context, e *domain.LedgerEntry) (bool, error)
	Balance(ctx context.Context, studentProfileID string, pt domain.PointType) (int, error)
	ListByStudent(ctx context.Context, studentProfileID string) ([]*domain.LedgerEntry, error)
}

type RosterRepo interface {
	Upsert(ctx context.Context, m *domain.RosterMember) error
	Get(ctx context.Context, classroomID, profileID string) (*domain.RosterMember, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]*domain.RosterMember, error)
}
