// Package external defines the collaborators the engine consumes but does not
// own, with local implementations used by the CLI and the HTTP server.
package external

import (
	"context"
	"io"

	"github.com/alexanderramin/expeditions/internal/domain"
)

// RewardsLedger credits points to a student. Implementations must treat a
// repeated (student, point type, reason) credit as already applied.
type RewardsLedger interface {
	Credit(ctx context.Context, studentProfileID string, pt domain.PointType, amount int, reason string) error
}

// FileStorage stores an uploaded file and returns an opaque URL for it.
type FileStorage interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Roster answers classroom membership questions. Role returns a
// NotFoundError when the profile is not in the classroom.
type Roster interface {
	Role(ctx context.Context, classroomID, profileID string) (domain.RosterRole, error)
}
