package domain

import "time"

type Expedition struct {
	ID           string
	ClassroomID  string
	TeacherID    string
	Name         string
	MapImageURL  string
	Status       ExpeditionStatus
	AutoProgress bool
	PublishedAt  *time.Time
	ArchivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFrozen reports whether pins and connections are read-only.
func (e *Expedition) IsFrozen() bool {
	return e.Status != ExpeditionDraft
}

// CheckEditable returns a GraphFrozenError unless the expedition is a draft.
func (e *Expedition) CheckEditable() error {
	if e.IsFrozen() {
		return &GraphFrozenError{ExpeditionID: e.ID, Status: e.Status}
	}
	return nil
}

// Publish freezes the graph. pinCount is the number of authored pins.
func (e *Expedition) Publish(pinCount int, now time.Time) error {
	if e.Status != ExpeditionDraft {
		return &InvalidTransitionError{
			Entity: "expedition", ID: e.ID,
			From: string(e.Status), To: string(ExpeditionPublished),
			Reason: "only draft expeditions can be published",
		}
	}
	if pinCount == 0 {
		return &EmptyGraphError{ExpeditionID: e.ID}
	}
	e.Status = ExpeditionPublished
	e.PublishedAt = &now
	e.UpdatedAt = now
	return nil
}

// Archive stops new student progress while preserving history.
func (e *Expedition) Archive(now time.Time) error {
	if e.Status == ExpeditionArchived {
		return &InvalidTransitionError{
			Entity: "expedition", ID: e.ID,
			From: string(e.Status), To: string(ExpeditionArchived),
			AlreadyResolved: true,
		}
	}
	e.Status = ExpeditionArchived
	e.ArchivedAt = &now
	e.UpdatedAt = now
	return nil
}

// AcceptsProgress reports whether students can start or continue the expedition.
func (e *Expedition) AcceptsProgress() bool {
	return e.Status == ExpeditionPublished
}
