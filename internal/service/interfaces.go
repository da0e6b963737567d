package service

import (
	"context"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/importer"
)

// GraphService authors expeditions. Structural edits are only accepted while
// the expedition is a draft; every operation requires a classroom teacher.
type GraphService interface {
	CreateExpedition(ctx context.Context, req contract.NewExpeditionRequest) (*domain.Expedition, error)
	UpdateExpedition(ctx context.Context, req contract.UpdateExpeditionRequest) (*domain.Expedition, error)
	GetExpedition(ctx context.Context, viewerID, expeditionID string) (*domain.Expedition, error)
	// ListExpeditions returns the classroom's expeditions visible to viewerID.
	ListExpeditions(ctx context.Context, viewerID, classroomID string) ([]*domain.Expedition, error)
	GetGraph(ctx context.Context, viewerID, expeditionID string) (*contract.GraphView, error)

	CreatePin(ctx context.Context, req contract.NewPinRequest) (*domain.Pin, error)
	UpdatePin(ctx context.Context, req contract.UpdatePinRequest) (*domain.Pin, error)
	DeletePin(ctx context.Context, teacherID, pinID string) error

	CreateConnection(ctx context.Context, req contract.NewConnectionRequest) (*domain.Connection, error)
	UpdateConnection(ctx context.Context, req contract.UpdateConnectionRequest) (*domain.Connection, error)
	DeleteConnection(ctx context.Context, teacherID, connectionID string) error

	Publish(ctx context.Context, teacherID, expeditionID string) (*domain.Expedition, error)
	Archive(ctx context.Context, teacherID, expeditionID string) (*domain.Expedition, error)
}

// ProgressionService drives students through published expeditions.
type ProgressionService interface {
	// GetExpeditionState returns the graph with studentID's progress, creating
	// the progress on a student's first visit to a published expedition.
	// viewerID is the student or a teacher of the classroom.
	GetExpeditionState(ctx context.Context, viewerID, expeditionID, studentID string) (*contract.ExpeditionState, error)
	AttemptPin(ctx context.Context, req contract.AttemptRequest) (*contract.TransitionResult, error)
	Submit(ctx context.Context, req contract.SubmitRequest) (*contract.TransitionResult, error)
	SetTeacherDecision(ctx context.Context, req contract.DecisionRequest) (*contract.TransitionResult, error)
	ListPendingReviews(ctx context.Context, teacherID, expeditionID string) ([]contract.PendingReview, error)
	ListSubmissions(ctx context.Context, viewerID, pinID, studentID string) ([]contract.SubmissionView, error)
}

type RewardService interface {
	RetryPending(ctx context.Context, limit int) (*contract.RetryReport, error)
	ListGrants(ctx context.Context, studentID string) ([]contract.RewardView, error)
}

type RosterService interface {
	Add(ctx context.Context, classroomID, profileID, role string) error
	List(ctx context.Context, classroomID string) ([]*domain.RosterMember, error)
}

type ImportService interface {
	ImportExpedition(ctx context.Context, teacherID, filePath string) (*contract.ImportResult, error)
	ImportExpeditionFromSchema(ctx context.Context, teacherID string, schema *importer.ImportSchema) (*contract.ImportResult, error)
}
