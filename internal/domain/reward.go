package domain

import "time"

// RewardGrant is the durable record of rewards owed for one successful pin resolution.
// There is at most one grant per PinProgress.
type RewardGrant struct {
	ID               string
	PinProgressID    string
	PinID            string
	StudentProfileID string
	XP               int
	GP               int
	EarlyBonus       bool
	Status           RewardStatus
	XPDelivered      bool
	GPDelivered      bool
	Attempts         int
	LastError        string
	CreatedAt        time.Time
	DeliveredAt      *time.Time
}

// Reason returns the ledger reason for the given point type. It is unique per grant
// so the ledger can discard duplicate credits.
func (g *RewardGrant) Reason(pt PointType) string {
	return "expedition pin " + g.PinID + " grant " + g.ID + " " + string(pt)
}

// Outstanding reports whether any point type still needs crediting.
func (g *RewardGrant) Outstanding() bool {
	return (g.XP > 0 && !g.XPDelivered) || (g.GP > 0 && !g.GPDelivered)
}

// RosterMember links a profile to a classroom with a role.
type RosterMember struct {
	ClassroomID string
	ProfileID   string
	Role        RosterRole
	CreatedAt   time.Time
}

// LedgerEntry is a single point credit recorded by the local rewards ledger.
type LedgerEntry struct {
	ID               string
	StudentProfileID string
	PointType        PointType
	Amount           int
	Reason           string
	CreatedAt        time.Time
}
