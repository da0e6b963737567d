package importer

import (
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/google/uuid"
)

// GeneratedExpedition holds domain objects converted from an import file,
// pins and connections in file order.
type GeneratedExpedition struct {
	Expedition  *domain.Expedition
	Pins        []*domain.Pin
	Connections []*domain.Connection
	Publish     bool
}

// Convert transforms a validated ImportSchema into domain objects ready for
// persistence. Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, teacherID string) *GeneratedExpedition {
	now := time.Now().UTC()
	exp := &domain.Expedition{
		ID:           uuid.New().String(),
		ClassroomID:  schema.Expedition.ClassroomID,
		TeacherID:    teacherID,
		Name:         schema.Expedition.Name,
		MapImageURL:  schema.Expedition.MapImageURL,
		Status:       domain.ExpeditionDraft,
		AutoProgress: schema.Expedition.AutoProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	out := &GeneratedExpedition{Expedition: exp, Publish: schema.Expedition.Publish}
	refMap := make(map[string]string, len(schema.Pins))

	for _, p := range schema.Pins {
		pin := &domain.Pin{
			ID:                 uuid.New().String(),
			ExpeditionID:       exp.ID,
			Type:               domain.PinType(p.Type),
			Name:               p.Name,
			Story:              p.Story,
			PosX:               p.X,
			PosY:               p.Y,
			RequiresSubmission: p.RequiresSubmission,
			DueDate:            parseOptionalTime(p.DueDate),
			AutoProgress:       p.AutoProgress,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if p.Reward != nil {
			pin.RewardXP, pin.RewardGP = p.Reward.XP, p.Reward.GP
		}
		if early := parseOptionalTime(p.EarlySubmissionDate); early != nil {
			pin.EarlySubmissionEnabled = true
			pin.EarlySubmissionDate = early
			if p.EarlyBonus != nil {
				pin.EarlyBonusXP, pin.EarlyBonusGP = p.EarlyBonus.XP, p.EarlyBonus.GP
			}
		}
		refMap[p.Ref] = pin.ID
		out.Pins = append(out.Pins, pin)
	}

	for _, c := range schema.Connections {
		out.Connections = append(out.Connections, &domain.Connection{
			ID:           uuid.New().String(),
			ExpeditionID: exp.ID,
			FromPinID:    refMap[c.From],
			ToPinID:      refMap[c.To],
			OnSuccess:    OnSuccessFor(c.When),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out
}

// OnSuccessFor maps a "when" condition to a connection outcome filter; "always"
// and unknown values mean any outcome.
func OnSuccessFor(when string) *bool {
	switch when {
	case "pass":
		return domain.BoolPtr(true)
	case "fail":
		return domain.BoolPtr(false)
	default:
		return nil
	}
}

func parseOptionalTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil
	}
	return &t
}
