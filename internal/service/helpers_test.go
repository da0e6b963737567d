package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/graph"
	"github.com/alexanderramin/expeditions/internal/metrics"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/alexanderramin/expeditions/internal/reward"
	"github.com/alexanderramin/expeditions/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	teacherID = "teacher-1"
	classID   = "class-1"
	student1  = "stu-1"
	student2  = "stu-2"
)

// switchLedger fails every credit while down is set.
type switchLedger struct {
	inner external.RewardsLedger
	down  atomic.Bool
	calls atomic.Int32
}

func (l *switchLedger) Credit(ctx context.Context, student string, pt domain.PointType, amount int, reason string) error {
	l.calls.Add(1)
	if l.down.Load() {
		return errors.New("ledger unavailable")
	}
	return l.inner.Credit(ctx, student, pt, amount, reason)
}

type harness struct {
	db       *sql.DB
	ledger   *external.SQLiteLedger
	switcher *switchLedger
	metrics  *metrics.Metrics
	issuer   *reward.Issuer
	graph    GraphService
	progress ProgressionService
	rewards  RewardService
	grants   repository.RewardGrantRepo
	pinProg  repository.PinProgressRepo
	logs     *bytes.Buffer
	deps     ProgressionDeps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, testutil.NewTestDB(t), nil)
}

// newHarnessWith builds every service over database. uow overrides the
// transaction runner of the progression service when non-nil.
func newHarnessWith(t *testing.T, database *sql.DB, uow db.UnitOfWork) *harness {
	t.Helper()
	ctx := context.Background()

	roster := external.NewSQLiteRoster(database)
	require.NoError(t, roster.Add(ctx, classID, teacherID, domain.RoleTeacher))
	require.NoError(t, roster.Add(ctx, classID, student1, domain.RoleStudent))
	require.NoError(t, roster.Add(ctx, classID, student2, domain.RoleStudent))

	ledger := external.NewSQLiteLedger(database)
	switcher := &switchLedger{inner: ledger}
	m := metrics.New()
	issuer := reward.NewIssuer(database, switcher, reward.WithMetrics(m))

	realUoW := testutil.NewTestUoW(database)
	if uow == nil {
		uow = realUoW
	}
	cache := graph.NewCache()
	expRepo := repository.NewSQLiteExpeditionRepo(database)
	pinRepo := repository.NewSQLitePinRepo(database)
	connRepo := repository.NewSQLiteConnectionRepo(database)
	grants := repository.NewSQLiteRewardGrantRepo(database)
	pinProg := repository.NewSQLitePinProgressRepo(database)
	logs := &bytes.Buffer{}
	deps := ProgressionDeps{
		Expeditions: expRepo,
		Pins:        pinRepo,
		Connections: connRepo,
		PinProgress: pinProg,
		Submissions: repository.NewSQLiteSubmissionRepo(database),
		Roster:      roster,
		Graphs:      cache,
		Issuer:      issuer,
		UoW:         uow,
		Metrics:     m,
		Logger:      slog.New(slog.NewTextHandler(logs, nil)),
	}

	return &harness{
		db:       database,
		ledger:   ledger,
		switcher: switcher,
		metrics:  m,
		issuer:   issuer,
		graph:    NewGraphService(expRepo, pinRepo, connRepo, roster, cache, realUoW),
		progress: NewProgressionService(deps, NewMetricsUseCaseObserver(m)),
		rewards:  NewRewardService(grants, issuer),
		grants:   grants,
		pinProg:  pinProg,
		logs:     logs,
		deps:     deps,
	}
}

// withClock rebuilds the progression service on a fixed clock.
func (h *harness) withClock(now func() time.Time) {
	h.deps.Clock = now
	h.progress = NewProgressionService(h.deps, NewMetricsUseCaseObserver(h.metrics))
}

func (h *harness) expedition(t *testing.T, name string, autoProgress bool) *domain.Expedition {
	t.Helper()
	exp, err := h.graph.CreateExpedition(context.Background(), contract.NewExpeditionRequest{
		TeacherProfileID: teacherID, ClassroomID: classID, Name: name, AutoProgress: autoProgress,
	})
	require.NoError(t, err)
	return exp
}

func (h *harness) pin(t *testing.T, expID string, fields contract.PinFields) *domain.Pin {
	t.Helper()
	p, err := h.graph.CreatePin(context.Background(), contract.NewPinRequest{
		TeacherProfileID: teacherID, ExpeditionID: expID, PinFields: fields,
	})
	require.NoError(t, err)
	return p
}

func (h *harness) connect(t *testing.T, expID, from, to string, onSuccess *bool) *domain.Connection {
	t.Helper()
	c, err := h.graph.CreateConnection(context.Background(), contract.NewConnectionRequest{
		TeacherProfileID: teacherID, ExpeditionID: expID, FromPinID: from, ToPinID: to, OnSuccess: onSuccess,
	})
	require.NoError(t, err)
	return c
}

func (h *harness) publish(t *testing.T, expID string) {
	t.Helper()
	_, err := h.graph.Publish(context.Background(), teacherID, expID)
	require.NoError(t, err)
}

// scenarioPins is INTRO -> OBJECTIVE (reviewed) -> FINAL, with a remedial
// OBJECTIVE reached only when the first objective fails.
type scenarioPins struct {
	exp       *domain.Expedition
	intro     *domain.Pin
	objective *domain.Pin
	remedial  *domain.Pin
	final     *domain.Pin
}

func (h *harness) scenario(t *testing.T) scenarioPins {
	t.Helper()
	exp := h.expedition(t, "Volcano Island", false)
	s := scenarioPins{exp: exp}
	s.intro = h.pin(t, exp.ID, contract.PinFields{Type: "INTRO", Name: "Landing", RewardXP: 10})
	s.objective = h.pin(t, exp.ID, contract.PinFields{
		Type: "OBJECTIVE", Name: "Lava Report", RequiresSubmission: true, RewardXP: 100, RewardGP: 20,
	})
	s.remedial = h.pin(t, exp.ID, contract.PinFields{Type: "OBJECTIVE", Name: "Ash Review", RewardXP: 5})
	s.final = h.pin(t, exp.ID, contract.PinFields{Type: "FINAL", Name: "Summit", RewardXP: 50})

	h.connect(t, exp.ID, s.intro.ID, s.objective.ID, nil)
	h.connect(t, exp.ID, s.objective.ID, s.final.ID, domain.BoolPtr(true))
	h.connect(t, exp.ID, s.objective.ID, s.remedial.ID, domain.BoolPtr(false))
	h.connect(t, exp.ID, s.remedial.ID, s.final.ID, nil)
	h.publish(t, exp.ID)
	return s
}

func (h *harness) attempt(t *testing.T, student, pinID string) *contract.TransitionResult {
	t.Helper()
	res, err := h.progress.AttemptPin(context.Background(), contract.AttemptRequest{StudentProfileID: student, PinID: pinID})
	require.NoError(t, err)
	return res
}

func (h *harness) submit(t *testing.T, student, pinID string, files ...string) *contract.TransitionResult {
	t.Helper()
	res, err := h.progress.Submit(context.Background(), contract.SubmitRequest{StudentProfileID: student, PinID: pinID, Files: files})
	require.NoError(t, err)
	return res
}

func (h *harness) decide(t *testing.T, student, pinID string, passed bool) *contract.TransitionResult {
	t.Helper()
	res, err := h.progress.SetTeacherDecision(context.Background(), decision(student, pinID, passed))
	require.NoError(t, err)
	return res
}

func decision(student, pinID string, passed bool) contract.DecisionRequest {
	return contract.DecisionRequest{
		TeacherProfileID: teacherID, PinID: pinID, StudentProfileID: student, Passed: domain.BoolPtr(passed),
	}
}

func (h *harness) state(t *testing.T, expID, student string) *contract.ExpeditionState {
	t.Helper()
	st, err := h.progress.GetExpeditionState(context.Background(), student, expID, student)
	require.NoError(t, err)
	return st
}

func (h *harness) balance(t *testing.T, student string, pt domain.PointType) int {
	t.Helper()
	n, err := h.ledger.Balance(context.Background(), student, pt)
	require.NoError(t, err)
	return n
}
