package testutil

import (
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/google/uuid"
)

// Expedition options
type ExpeditionOption func(*domain.Expedition)

func WithClassroom(id string) ExpeditionOption {
	return func(e *domain.Expedition) {
		e.ClassroomID = id
	}
}

func WithTeacher(id string) ExpeditionOption {
	return func(e *domain.Expedition) {
		e.TeacherID = id
	}
}

func WithExpeditionStatus(s domain.ExpeditionStatus) ExpeditionOption {
	return func(e *domain.Expedition) {
		e.Status = s
		if s != domain.ExpeditionDraft {
			now := time.Now().UTC()
			e.PublishedAt = &now
		}
	}
}

func WithAutoProgress(b bool) ExpeditionOption {
	return func(e *domain.Expedition) {
		e.AutoProgress = b
	}
}

func NewTestExpedition(name string, opts ...ExpeditionOption) *domain.Expedition {
	now := time.Now().UTC()
	e := &domain.Expedition{
		ID:          uuid.New().String(),
		ClassroomID: "class-1",
		TeacherID:   "teacher-1",
		Name:        name,
		Status:      domain.ExpeditionDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pin options
type PinOption func(*domain.Pin)

func WithPinType(pt domain.PinType) PinOption {
	return func(p *domain.Pin) {
		p.Type = pt
	}
}

func WithSubmission() PinOption {
	return func(p *domain.Pin) {
		p.RequiresSubmission = true
	}
}

func WithRewards(xp, gp int) PinOption {
	return func(p *domain.Pin) {
		p.RewardXP = xp
		p.RewardGP = gp
	}
}

func WithEarlyBonus(until time.Time, xp, gp int) PinOption {
	return func(p *domain.Pin) {
		p.EarlySubmissionEnabled = true
		p.EarlySubmissionDate = &until
		p.EarlyBonusXP = xp
		p.EarlyBonusGP = gp
	}
}

func WithPinAutoProgress(b bool) PinOption {
	return func(p *domain.Pin) {
		p.AutoProgress = &b
	}
}

func WithDueDate(d time.Time) PinOption {
	return func(p *domain.Pin) {
		p.DueDate = &d
	}
}

// NewTestPin builds an OBJECTIVE pin by default.
func NewTestPin(expeditionID, name string, opts ...PinOption) *domain.Pin {
	now := time.Now().UTC()
	p := &domain.Pin{
		ID:           uuid.New().String(),
		ExpeditionID: expeditionID,
		Type:         domain.PinObjective,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewTestConnection builds an edge; onSuccess nil means unconditional.
func NewTestConnection(expeditionID, fromPinID, toPinID string, onSuccess *bool) *domain.Connection {
	now := time.Now().UTC()
	return &domain.Connection{
		ID:           uuid.New().String(),
		ExpeditionID: expeditionID,
		FromPinID:    fromPinID,
		ToPinID:      toPinID,
		OnSuccess:    onSuccess,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewTestPinProgress(pin *domain.Pin, studentID string, status domain.PinStatus) *domain.PinProgress {
	now := time.Now().UTC()
	pp := &domain.PinProgress{
		ID:               uuid.New().String(),
		ExpeditionID:     pin.ExpeditionID,
		PinID:            pin.ID,
		StudentProfileID: studentID,
		Status:           status,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status != domain.PinLocked {
		pp.UnlockedAt = &now
	}
	return pp
}

func NewTestStudentProgress(expeditionID, studentID string) *domain.StudentExpeditionProgress {
	now := time.Now().UTC()
	return &domain.StudentExpeditionProgress{
		ID:               uuid.New().String(),
		ExpeditionID:     expeditionID,
		StudentProfileID: studentID,
		StartedAt:        now,
		UpdatedAt:        now,
	}
}

func NewTestGrant(pp *domain.PinProgress, xp, gp int) *domain.RewardGrant {
	return &domain.RewardGrant{
		ID:               uuid.New().String(),
		PinProgressID:    pp.ID,
		PinID:            pp.PinID,
		StudentProfileID: pp.StudentProfileID,
		XP:               xp,
		GP:               gp,
		Status:           domain.RewardPending,
		CreatedAt:        time.Now().UTC(),
	}
}
