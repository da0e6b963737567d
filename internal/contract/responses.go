package contract

import (
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

type ExpeditionView struct {
	ID           string     `json:"id"`
	ClassroomID  string     `json:"classroomId"`
	TeacherID    string     `json:"teacherId"`
	Name         string     `json:"name"`
	MapImageURL  string     `json:"mapImageUrl,omitempty"`
	Status       string     `json:"status"`
	AutoProgress bool       `json:"autoProgress"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func NewExpeditionView(e *domain.Expedition) ExpeditionView {
	return ExpeditionView{
		ID:           e.ID,
		ClassroomID:  e.ClassroomID,
		TeacherID:    e.TeacherID,
		Name:         e.Name,
		MapImageURL:  e.MapImageURL,
		Status:       string(e.Status),
		AutoProgress: e.AutoProgress,
		PublishedAt:  e.PublishedAt,
		ArchivedAt:   e.ArchivedAt,
		CreatedAt:    e.CreatedAt,
	}
}

type PinView struct {
	ID                    string `json:"id"`
	ExpeditionID          string `json:"expeditionId"`
	EffectiveAutoProgress bool   `json:"effectiveAutoProgress"`
	PinFields
}

func NewPinView(p *domain.Pin, e *domain.Expedition) PinView {
	return PinView{
		ID:                    p.ID,
		ExpeditionID:          p.ExpeditionID,
		EffectiveAutoProgress: p.EffectiveAutoProgress(e),
		PinFields:             PinFieldsFrom(p),
	}
}

type ConnectionView struct {
	ID        string `json:"id"`
	FromPinID string `json:"fromPinId"`
	ToPinID   string `json:"toPinId"`
	OnSuccess *bool  `json:"onSuccess"`
	Condition string `json:"condition"`
}

func NewConnectionView(c *domain.Connection) ConnectionView {
	return ConnectionView{
		ID:        c.ID,
		FromPinID: c.FromPinID,
		ToPinID:   c.ToPinID,
		OnSuccess: c.OnSuccess,
		Condition: c.ConditionLabel(),
	}
}

// GraphView is an expedition with its authored pins and connections.
type GraphView struct {
	Expedition  ExpeditionView   `json:"expedition"`
	Pins        []PinView        `json:"pins"`
	Connections []ConnectionView `json:"connections"`
}

func NewGraphView(e *domain.Expedition, pins []*domain.Pin, conns []*domain.Connection) *GraphView {
	g := &GraphView{
		Expedition:  NewExpeditionView(e),
		Pins:        make([]PinView, 0, len(pins)),
		Connections: make([]ConnectionView, 0, len(conns)),
	}
	for _, p := range pins {
		g.Pins = append(g.Pins, NewPinView(p, e))
	}
	for _, c := range conns {
		g.Connections = append(g.Connections, NewConnectionView(c))
	}
	return g
}

type ProgressView struct {
	ID               string     `json:"id"`
	StudentProfileID string     `json:"studentProfileId"`
	CurrentPinID     *string    `json:"currentPinId"`
	IsCompleted      bool       `json:"isCompleted"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	FinalScore       *float64   `json:"finalScore,omitempty"`
	StartedAt        time.Time  `json:"startedAt"`
}

func NewProgressView(p *domain.StudentExpeditionProgress) *ProgressView {
	if p == nil {
		return nil
	}
	return &ProgressView{
		ID:               p.ID,
		StudentProfileID: p.StudentProfileID,
		CurrentPinID:     p.CurrentPinID,
		IsCompleted:      p.IsCompleted,
		CompletedAt:      p.CompletedAt,
		FinalScore:       p.FinalScore,
		StartedAt:        p.StartedAt,
	}
}

type PinProgressView struct {
	PinID           string     `json:"pinId"`
	Status          string     `json:"status"`
	TeacherDecision *bool      `json:"teacherDecision,omitempty"`
	RewardsIssued   bool       `json:"rewardsIssued"`
	AttemptCount    int        `json:"attemptCount"`
	Version         int        `json:"version"`
	UnlockedAt      *time.Time `json:"unlockedAt,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	// Late is informational: the latest submission, else the resolution
	// time, else now, is past the pin's due date.
	Late bool `json:"late"`
}

func NewPinProgressView(pp *domain.PinProgress, late bool) PinProgressView {
	return PinProgressView{
		PinID:           pp.PinID,
		Status:          string(pp.Status),
		TeacherDecision: pp.TeacherDecision,
		RewardsIssued:   pp.RewardsIssued,
		AttemptCount:    pp.AttemptCount,
		Version:         pp.Version,
		UnlockedAt:      pp.UnlockedAt,
		StartedAt:       pp.StartedAt,
		ResolvedAt:      pp.ResolvedAt,
		Late:            late,
	}
}

// ExpeditionState is a student's view of an expedition. Progress is nil for an
// archived expedition the student never started.
type ExpeditionState struct {
	GraphView
	Progress    *ProgressView     `json:"progress"`
	PinProgress []PinProgressView `json:"pinProgress"`
}

// PinStatus returns the student's status for pinID, or "" when unknown.
func (s *ExpeditionState) PinStatus(pinID string) string {
	for _, pp := range s.PinProgress {
		if pp.PinID == pinID {
			return pp.Status
		}
	}
	return ""
}

type RewardView struct {
	GrantID    string `json:"grantId"`
	XP         int    `json:"xp"`
	GP         int    `json:"gp"`
	EarlyBonus bool   `json:"earlyBonus"`
	Status     string `json:"status"`
	LastError  string `json:"lastError,omitempty"`
}

func NewRewardView(g *domain.RewardGrant) *RewardView {
	if g == nil {
		return nil
	}
	return &RewardView{
		GrantID:    g.ID,
		XP:         g.XP,
		GP:         g.GP,
		EarlyBonus: g.EarlyBonus,
		Status:     string(g.Status),
		LastError:  g.LastError,
	}
}

// TransitionResult reports the effect of a student action or teacher decision.
type TransitionResult struct {
	ExpeditionID        string          `json:"expeditionId"`
	PinProgress         PinProgressView `json:"pinProgress"`
	Changed             bool            `json:"changed"`
	Unlocked            []string        `json:"unlocked"`
	CurrentPinID        *string         `json:"currentPinId"`
	ExpeditionCompleted bool            `json:"expeditionCompleted"`
	FinalScore          *float64        `json:"finalScore,omitempty"`
	Reward              *RewardView     `json:"reward,omitempty"`
}

type SubmissionView struct {
	ID          string    `json:"id"`
	Files       []string  `json:"files"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	Late        bool      `json:"late"`
}

func NewSubmissionView(s *domain.Submission, pin *domain.Pin) SubmissionView {
	files := s.Files
	if files == nil {
		files = []string{}
	}
	return SubmissionView{
		ID:          s.ID,
		Files:       files,
		Comment:     s.Comment,
		SubmittedAt: s.SubmittedAt,
		Late:        pin.IsLate(s.SubmittedAt),
	}
}

// PendingReview is a submission waiting for a teacher decision.
type PendingReview struct {
	ExpeditionID     string         `json:"expeditionId"`
	ExpeditionName   string         `json:"expeditionName"`
	PinID            string         `json:"pinId"`
	PinName          string         `json:"pinName"`
	PinType          string         `json:"pinType"`
	StudentProfileID string         `json:"studentProfileId"`
	AttemptCount     int            `json:"attemptCount"`
	Submission       SubmissionView `json:"submission"`
}

type RetryReport struct {
	Attempted int      `json:"attempted"`
	Delivered int      `json:"delivered"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

type ImportResult struct {
	Expedition      ExpeditionView `json:"expedition"`
	PinCount        int            `json:"pinCount"`
	ConnectionCount int            `json:"connectionCount"`
	Published       bool           `json:"published"`
}

type RosterMemberView struct {
	ClassroomID string    `json:"classroomId"`
	ProfileID   string    `json:"profileId"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func NewRosterMemberViews(members []*domain.RosterMember) []RosterMemberView {
	views := make([]RosterMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, RosterMemberView{
			ClassroomID: m.ClassroomID,
			ProfileID:   m.ProfileID,
			Role:        string(m.Role),
			JoinedAt:    m.CreatedAt,
		})
	}
	return views
}
