package domain

import "time"

// StudentExpeditionProgress is one student's run through a published expedition.
type StudentExpeditionProgress struct {
	ID               string
	ExpeditionID     string
	StudentProfileID string
	CurrentPinID     *string
	IsCompleted      bool
	CompletedAt      *time.Time
	FinalScore       *float64
	StartedAt        time.Time
	UpdatedAt        time.Time
}

// Complete marks the expedition finished. Repeated calls keep the first completion.
func (p *StudentExpeditionProgress) Complete(score float64, now time.Time) bool {
	if p.IsCompleted {
		return false
	}
	p.IsCompleted = true
	p.CompletedAt = &now
	p.FinalScore = &score
	p.UpdatedAt = now
	return true
}

// PinProgress is the per-(student, pin) state machine instance.
type PinProgress struct {
	ID               string
	ExpeditionID     string
	PinID            string
	StudentProfileID string
	Status           PinStatus
	TeacherDecision  *bool
	RewardsIssued    bool
	AttemptCount     int
	Version          int
	UnlockedAt       *time.Time
	StartedAt        *time.Time
	ResolvedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var pinTransitions = map[PinStatus][]PinStatus{
	PinLocked:     {PinUnlocked},
	PinUnlocked:   {PinInProgress, PinPassed, PinFailed, PinCompleted},
	PinInProgress: {PinPassed, PinFailed, PinCompleted},
	PinFailed:     {PinInProgress},
}

// CanTransition reports whether from -> to is a legal pin state change.
func CanTransition(from, to PinStatus) bool {
	for _, s := range pinTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (pp *PinProgress) transition(to PinStatus, now time.Time) error {
	if pp.Status == PinLocked && to != PinUnlocked {
		return &PinLockedError{PinID: pp.PinID, StudentProfileID: pp.StudentProfileID}
	}
	if !CanTransition(pp.Status, to) {
		return &InvalidTransitionError{
			Entity:          "pin",
			ID:              pp.PinID,
			From:            string(pp.Status),
			To:              string(to),
			AlreadyResolved: pp.Status.IsSuccess(),
		}
	}
	pp.Status = to
	pp.UpdatedAt = now
	switch to {
	case PinUnlocked:
		pp.UnlockedAt = &now
	case PinInProgress:
		pp.StartedAt = &now
		pp.ResolvedAt = nil
		pp.AttemptCount++
	case PinPassed, PinFailed, PinCompleted:
		pp.ResolvedAt = &now
	}
	return nil
}

// Unlock moves a LOCKED pin to UNLOCKED. Already reachable pins are left alone.
func (pp *PinProgress) Unlock(now time.Time) bool {
	if pp.Status != PinLocked {
		return false
	}
	_ = pp.transition(PinUnlocked, now)
	return true
}

// Start opens the pin for work: UNLOCKED -> IN_PROGRESS or FAILED -> IN_PROGRESS (retry).
// Clears any previous teacher decision so a fresh one can be recorded.
func (pp *PinProgress) Start(now time.Time) error {
	if err := pp.transition(PinInProgress, now); err != nil {
		return err
	}
	pp.TeacherDecision = nil
	return nil
}

// Resolve records an evaluation outcome. decision is set only for manual review.
func (pp *PinProgress) Resolve(to PinStatus, decision *bool, now time.Time) error {
	if !to.IsResolved() {
		return &InvalidTransitionError{Entity: "pin", ID: pp.PinID, From: string(pp.Status), To: string(to), Reason: "not an evaluation outcome"}
	}
	if pp.Status.IsResolved() {
		return &InvalidTransitionError{Entity: "pin", ID: pp.PinID, From: string(pp.Status), To: string(to), AlreadyResolved: true}
	}
	if err := pp.transition(to, now); err != nil {
		return err
	}
	pp.TeacherDecision = decision
	return nil
}

// CheckReachable returns a PinLockedError for LOCKED pins.
func (pp *PinProgress) CheckReachable() error {
	if pp.Status == PinLocked {
		return &PinLockedError{PinID: pp.PinID, StudentProfileID: pp.StudentProfileID}
	}
	return nil
}
