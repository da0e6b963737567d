package domain

import "time"

type Pin struct {
	ID           string
	ExpeditionID string
	Type         PinType
	Name         string
	Story        string
	PosX         float64
	PosY         float64

	// Task
	RequiresSubmission bool
	DueDate            *time.Time

	// Early submission
	EarlySubmissionEnabled bool
	EarlySubmissionDate    *time.Time

	// Rewards
	RewardXP     int
	RewardGP     int
	EarlyBonusXP int
	EarlyBonusGP int

	// AutoProgress overrides the expedition default when non-nil.
	AutoProgress *bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveAutoProgress resolves the pin override against the expedition default.
func (p *Pin) EffectiveAutoProgress(exp *Expedition) bool {
	return Deref(p.AutoProgress, exp.AutoProgress)
}

// IsNarrative reports whether the pin is a checkpoint rather than a graded objective.
func (p *Pin) IsNarrative() bool {
	return p.Type == PinIntro || p.Type == PinFinal
}

// IsLate reports whether a submission at t is past the pin's due date.
func (p *Pin) IsLate(t time.Time) bool {
	return p.DueDate != nil && t.After(*p.DueDate)
}

// QualifiesForEarlyBonus reports whether a submission at t earns the early bonus.
func (p *Pin) QualifiesForEarlyBonus(t time.Time) bool {
	if !p.EarlySubmissionEnabled || p.EarlySubmissionDate == nil {
		return false
	}
	return !t.After(*p.EarlySubmissionDate)
}
