package contract

import (
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

// Authoring requests carry the acting teacher; authorization is checked
// against the classroom roster by the graph service.

type NewExpeditionRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	ClassroomID      string `json:"classroomId" validate:"required"`
	Name             string `json:"name" validate:"required,max=200"`
	MapImageURL      string `json:"mapImageUrl" validate:"omitempty,url"`
	AutoProgress     bool   `json:"autoProgress"`
}

// UpdateExpeditionRequest changes only the fields that are set.
type UpdateExpeditionRequest struct {
	TeacherProfileID string  `json:"teacherProfileId" validate:"required"`
	ExpeditionID     string  `json:"expeditionId" validate:"required"`
	Name             *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	MapImageURL      *string `json:"mapImageUrl,omitempty" validate:"omitempty,url"`
	AutoProgress     *bool   `json:"autoProgress,omitempty"`
}

// PinFields is the authored content of a pin.
type PinFields struct {
	Type                   string     `json:"pinType" validate:"required,pintype"`
	Name                   string     `json:"name" validate:"required,max=200"`
	Story                  string     `json:"story"`
	PosX                   float64    `json:"posX"`
	PosY                   float64    `json:"posY"`
	RequiresSubmission     bool       `json:"requiresSubmission"`
	DueDate                *time.Time `json:"dueDate,omitempty"`
	EarlySubmissionEnabled bool       `json:"earlySubmissionEnabled"`
	EarlySubmissionDate    *time.Time `json:"earlySubmissionDate,omitempty" validate:"required_if=EarlySubmissionEnabled true"`
	RewardXP               int        `json:"rewardXp" validate:"gte=0"`
	RewardGP               int        `json:"rewardGp" validate:"gte=0"`
	EarlyBonusXP           int        `json:"earlyBonusXp" validate:"gte=0"`
	EarlyBonusGP           int        `json:"earlyBonusGp" validate:"gte=0"`
	AutoProgress           *bool      `json:"autoProgress,omitempty"`
}

// PinFieldsFrom copies a pin's authored content, for read-modify-write updates.
func PinFieldsFrom(p *domain.Pin) PinFields {
	return PinFields{
		Type:                   string(p.Type),
		Name:                   p.Name,
		Story:                  p.Story,
		PosX:                   p.PosX,
		PosY:                   p.PosY,
		RequiresSubmission:     p.RequiresSubmission,
		DueDate:                p.DueDate,
		EarlySubmissionEnabled: p.EarlySubmissionEnabled,
		EarlySubmissionDate:    p.EarlySubmissionDate,
		RewardXP:               p.RewardXP,
		RewardGP:               p.RewardGP,
		EarlyBonusXP:           p.EarlyBonusXP,
		EarlyBonusGP:           p.EarlyBonusGP,
		AutoProgress:           p.AutoProgress,
	}
}

// Apply writes the fields onto p.
func (f PinFields) Apply(p *domain.Pin) {
	p.Type = domain.PinType(f.Type)
	p.Name = f.Name
	p.Story = f.Story
	p.PosX = f.PosX
	p.PosY = f.PosY
	p.RequiresSubmission = f.RequiresSubmission
	p.DueDate = f.DueDate
	p.EarlySubmissionEnabled = f.EarlySubmissionEnabled
	p.EarlySubmissionDate = f.EarlySubmissionDate
	p.RewardXP = f.RewardXP
	p.RewardGP = f.RewardGP
	p.EarlyBonusXP = f.EarlyBonusXP
	p.EarlyBonusGP = f.EarlyBonusGP
	p.AutoProgress = f.AutoProgress
}

type NewPinRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	ExpeditionID     string `json:"expeditionId" validate:"required"`
	PinFields
}

// UpdatePinRequest replaces all authored fields of the pin.
type UpdatePinRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	PinID            string `json:"pinId" validate:"required"`
	PinFields
}

type NewConnectionRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	ExpeditionID     string `json:"expeditionId" validate:"required"`
	FromPinID        string `json:"fromPinId" validate:"required"`
	ToPinID          string `json:"toPinId" validate:"required,nefield=FromPinID"`
	OnSuccess        *bool  `json:"onSuccess"`
}

type UpdateConnectionRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	ConnectionID     string `json:"connectionId" validate:"required"`
	OnSuccess        *bool  `json:"onSuccess"`
}

// Student and review requests.

type AttemptRequest struct {
	StudentProfileID string `json:"studentProfileId" validate:"required"`
	PinID            string `json:"pinId" validate:"required"`
}

type SubmitRequest struct {
	StudentProfileID string   `json:"studentProfileId" validate:"required"`
	PinID            string   `json:"pinId" validate:"required"`
	Files            []string `json:"files" validate:"max=20,dive,required"`
	Comment          string   `json:"comment" validate:"max=5000"`
}

type DecisionRequest struct {
	TeacherProfileID string `json:"teacherProfileId" validate:"required"`
	PinID            string `json:"pinId" validate:"required"`
	StudentProfileID string `json:"studentProfileId" validate:"required"`
	Passed           *bool  `json:"passed" validate:"required"`
}
