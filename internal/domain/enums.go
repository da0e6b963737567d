package domain

type ExpeditionStatus string

const (
	ExpeditionDraft     ExpeditionStatus = "DRAFT"
	ExpeditionPublished ExpeditionStatus = "PUBLISHED"
	ExpeditionArchived  ExpeditionStatus = "ARCHIVED"
)

type PinType string

const (
	PinIntro     PinType = "INTRO"
	PinObjective PinType = "OBJECTIVE"
	PinFinal     PinType = "FINAL"
)

// ValidPinTypes is the canonical set of accepted pin type strings.
var ValidPinTypes = map[string]bool{
	"INTRO": true, "OBJECTIVE": true, "FINAL": true,
}

type PinStatus string

const (
	PinLocked     PinStatus = "LOCKED"
	PinUnlocked   PinStatus = "UNLOCKED"
	PinInProgress PinStatus = "IN_PROGRESS"
	PinPassed     PinStatus = "PASSED"
	PinFailed     PinStatus = "FAILED"
	PinCompleted  PinStatus = "COMPLETED"
)

// IsSuccess reports whether the status is a terminal success (PASSED or COMPLETED).
func (s PinStatus) IsSuccess() bool {
	return s == PinPassed || s == PinCompleted
}

// IsResolved reports whether an evaluation outcome has been recorded.
func (s PinStatus) IsResolved() bool {
	return s == PinPassed || s == PinCompleted || s == PinFailed
}

// Outcome is the result of evaluating a pin attempt, used to pick outgoing connections.
type Outcome string

const (
	OutcomePass     Outcome = "PASS"
	OutcomeFail     Outcome = "FAIL"
	OutcomeComplete Outcome = "COMPLETE"
)

// OutcomeFor maps a resolved pin status to its unlock outcome.
// ok is false for statuses that carry no outcome.
func OutcomeFor(s PinStatus) (o Outcome, ok bool) {
	switch s {
	case PinPassed:
		return OutcomePass, true
	case PinFailed:
		return OutcomeFail, true
	case PinCompleted:
		return OutcomeComplete, true
	default:
		return "", false
	}
}

type PointType string

const (
	PointXP PointType = "XP"
	PointGP PointType = "GP"
)

type RewardStatus string

const (
	RewardPending   RewardStatus = "PENDING"
	RewardDelivered RewardStatus = "DELIVERED"
)

type RosterRole string

const (
	RoleTeacher RosterRole = "TEACHER"
	RoleStudent RosterRole = "STUDENT"
)

// ValidRosterRoles is the canonical set of accepted roster role strings.
var ValidRosterRoles = map[string]bool{
	"TEACHER": true, "STUDENT": true,
}
