package domain

import "time"

// Connection is a directed edge between two pins of the same expedition.
// OnSuccess nil is unconditional; true/false is taken only on a matching outcome.
type Connection struct {
	ID           string
	ExpeditionID string
	FromPinID    string
	ToPinID      string
	OnSuccess    *bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConditionLabel returns "always", "on pass" or "on fail".
func (c *Connection) ConditionLabel() string {
	switch {
	case c.OnSuccess == nil:
		return "always"
	case *c.OnSuccess:
		return "on pass"
	default:
		return "on fail"
	}
}
