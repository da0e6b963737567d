package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/evaluation"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/graph"
	"github.com/alexanderramin/expeditions/internal/metrics"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/alexanderramin/expeditions/internal/reward"
	"github.com/google/uuid"
)

// ProgressionDeps wires the progression service. Repositories are used for
// reads outside transactions; writes go through UoW-scoped repositories.
type ProgressionDeps struct {
	Expeditions repository.ExpeditionRepo
	Pins        repository.PinRepo
	Connections repository.ConnectionRepo
	PinProgress repository.PinProgressRepo
	Submissions repository.SubmissionRepo
	Roster      external.Roster
	Graphs      *graph.Cache
	Issuer      *reward.Issuer
	UoW         db.UnitOfWork
	Metrics     *metrics.Metrics
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
	// Logger receives post-commit delivery failures. Defaults to discard.
	Logger *slog.Logger
}

type progressionService struct {
	expeditions repository.ExpeditionRepo
	pins        repository.PinRepo
	pinProgress repository.PinProgressRepo
	submissions repository.SubmissionRepo
	auth        authorizer
	graphs      graphLoader
	issuer      *reward.Issuer
	uow         db.UnitOfWork
	metrics     *metrics.Metrics
	observer    UseCaseObserver
	logger      *slog.Logger
	now         func() time.Time
}

func NewProgressionService(deps ProgressionDeps, observers ...UseCaseObserver) ProgressionService {
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &progressionService{
		expeditions: deps.Expeditions,
		pins:        deps.Pins,
		pinProgress: deps.PinProgress,
		submissions: deps.Submissions,
		auth:        authorizer{roster: deps.Roster},
		graphs:      graphLoader{pins: deps.Pins, conns: deps.Connections, cache: deps.Graphs},
		issuer:      deps.Issuer,
		uow:         deps.UoW,
		metrics:     deps.Metrics,
		observer:    useCaseObserverOrNoop(observers),
		logger:      logger,
		now:         now,
	}
}

// target is the pin a request acts on, with its expedition and graph.
type target struct {
	exp   *domain.Expedition
	pin   *domain.Pin
	graph *graph.Graph
}

// run is one student's progress through an expedition, loaded inside a
// transaction. progress is nil when the student never started.
type run struct {
	tx       db.DBTX
	graph    *graph.Graph
	progress *domain.StudentExpeditionProgress
	pins     map[string]*domain.PinProgress
}

func (r *run) statuses() map[string]domain.PinStatus {
	out := make(map[string]domain.PinStatus, len(r.pins))
	for id, pp := range r.pins {
		out[id] = pp.Status
	}
	return out
}

func (r *run) pinProgress(pinID, studentID string) (*domain.PinProgress, error) {
	pp, ok := r.pins[pinID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "pin progress", ID: pinID + "/" + studentID}
	}
	return pp, nil
}

// change is what one transition did.
type change struct {
	pp        *domain.PinProgress
	progress  *domain.StudentExpeditionProgress
	changed   bool
	unlocked  []string
	completed bool
	grant     *domain.RewardGrant
	latest    *domain.Submission
}

func (s *progressionService) GetExpeditionState(ctx context.Context, viewerID, expeditionID, studentID string) (state *contract.ExpeditionState, err error) {
	defer observe(ctx, s.observer, "get-expedition-state", time.Now(), map[string]any{"expedition_id": expeditionID, "student": studentID}, &err)

	exp, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return nil, err
	}
	role, err := s.auth.canView(ctx, exp, viewerID)
	if err != nil {
		return nil, err
	}
	if viewerID != studentID && role != domain.RoleTeacher {
		return nil, &domain.UnauthorizedError{ProfileID: viewerID, Reason: "cannot view another student's progress"}
	}
	g, err := s.graphs.load(ctx, exp)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		current, err := repository.NewSQLiteExpeditionRepo(tx).GetByID(ctx, expeditionID)
		if err != nil {
			return err
		}
		// Teachers peeking at a student never start the student's run.
		create := current.AcceptsProgress() && viewerID == studentID
		r, err := s.loadRun(ctx, tx, current, g, studentID, create)
		if err != nil {
			return err
		}

		state = &contract.ExpeditionState{
			GraphView:   *contract.NewGraphView(current, g.Pins(), g.Connections()),
			Progress:    contract.NewProgressView(r.progress),
			PinProgress: make([]contract.PinProgressView, 0, len(r.pins)),
		}
		subs := repository.NewSQLiteSubmissionRepo(tx)
		now := s.now()
		for _, pin := range g.Pins() {
			pp, ok := r.pins[pin.ID]
			if !ok {
				continue
			}
			latest, err := latestSubmission(ctx, subs, pin.ID, studentID)
			if err != nil {
				return err
			}
			state.PinProgress = append(state.PinProgress, contract.NewPinProgressView(pp, lateFlag(pin, pp, latest, now)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *progressionService) AttemptPin(ctx context.Context, req contract.AttemptRequest) (res *contract.TransitionResult, err error) {
	fields := map[string]any{"pin_id": req.PinID, "student": req.StudentProfileID}
	defer observe(ctx, s.observer, "attempt-pin", time.Now(), fields, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	t, err := s.studentTarget(ctx, req.PinID, req.StudentProfileID)
	if err != nil {
		return nil, err
	}

	var c *change
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.openRun(ctx, tx, t, req.StudentProfileID)
		if err != nil {
			return err
		}
		pp, err := r.pinProgress(t.pin.ID, req.StudentProfileID)
		if err != nil {
			return err
		}
		if err := pp.CheckReachable(); err != nil {
			return err
		}
		now := s.now()

		ev := evaluation.Continue(t.pin)
		if ev.Status != domain.PinInProgress {
			c, err = s.resolve(ctx, r, t.pin, pp, ev.Status, nil, now)
			return err
		}

		c = &change{pp: pp, progress: r.progress}
		c.latest, err = latestSubmission(ctx, repository.NewSQLiteSubmissionRepo(tx), t.pin.ID, req.StudentProfileID)
		if err != nil {
			return err
		}
		switch {
		case pp.Status.IsSuccess():
			return &domain.InvalidTransitionError{
				Entity: "pin", ID: pp.PinID, From: string(pp.Status), AlreadyResolved: true,
			}
		case pp.Status != domain.PinUnlocked:
			// Already open, or FAILED waiting for a new submission.
			return nil
		}
		if err := pp.Start(now); err != nil {
			return err
		}
		c.changed = true
		return repository.NewSQLitePinProgressRepo(tx).Update(ctx, pp)
	})
	if err != nil {
		return nil, err
	}
	fields["status"] = string(c.pp.Status)
	return s.finish(ctx, t, c), nil
}

func (s *progressionService) Submit(ctx context.Context, req contract.SubmitRequest) (res *contract.TransitionResult, err error) {
	fields := map[string]any{"pin_id": req.PinID, "student": req.StudentProfileID, "files": len(req.Files)}
	defer observe(ctx, s.observer, "submit", time.Now(), fields, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	t, err := s.studentTarget(ctx, req.PinID, req.StudentProfileID)
	if err != nil {
		return nil, err
	}

	var c *change
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.openRun(ctx, tx, t, req.StudentProfileID)
		if err != nil {
			return err
		}
		pp, err := r.pinProgress(t.pin.ID, req.StudentProfileID)
		if err != nil {
			return err
		}
		if err := pp.CheckReachable(); err != nil {
			return err
		}
		ev, err := evaluation.Submit(t.pin, t.exp)
		if err != nil {
			return err
		}
		if pp.Status.IsSuccess() {
			return &domain.InvalidTransitionError{
				Entity: "pin", ID: pp.PinID, From: string(pp.Status), AlreadyResolved: true,
			}
		}

		now := s.now()
		sub := &domain.Submission{
			ID:               uuid.New().String(),
			PinID:            t.pin.ID,
			StudentProfileID: req.StudentProfileID,
			Files:            req.Files,
			Comment:          req.Comment,
			SubmittedAt:      now,
		}
		if err := repository.NewSQLiteSubmissionRepo(tx).Create(ctx, sub); err != nil {
			return err
		}

		started := false
		if pp.Status == domain.PinUnlocked || pp.Status == domain.PinFailed {
			if err := pp.Start(now); err != nil {
				return err
			}
			started = true
		}
		if !ev.NeedsReview {
			c, err = s.resolve(ctx, r, t.pin, pp, ev.Status, nil, sub.SubmittedAt)
			if c != nil {
				c.latest = sub
			}
			return err
		}
		c = &change{pp: pp, progress: r.progress, changed: started, latest: sub}
		if !started {
			return nil
		}
		return repository.NewSQLitePinProgressRepo(tx).Update(ctx, pp)
	})
	if err != nil {
		return nil, err
	}
	fields["status"] = string(c.pp.Status)
	return s.finish(ctx, t, c), nil
}

func (s *progressionService) SetTeacherDecision(ctx context.Context, req contract.DecisionRequest) (res *contract.TransitionResult, err error) {
	fields := map[string]any{"pin_id": req.PinID, "student": req.StudentProfileID}
	defer observe(ctx, s.observer, "teacher-decision", time.Now(), fields, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	fields["passed"] = *req.Passed
	t, err := s.loadTarget(ctx, req.PinID)
	if err != nil {
		return nil, err
	}
	if err = s.auth.requireTeacher(ctx, t.exp.ClassroomID, req.TeacherProfileID); err != nil {
		return nil, err
	}
	status, err := evaluation.Decide(t.pin, *req.Passed)
	if err != nil {
		return nil, err
	}

	var c *change
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.loadRun(ctx, tx, t.exp, t.graph, req.StudentProfileID, false)
		if err != nil {
			return err
		}
		pp, err := r.pinProgress(t.pin.ID, req.StudentProfileID)
		if err != nil {
			return err
		}
		if pp.Status != domain.PinInProgress {
			return &domain.InvalidTransitionError{
				Entity: "pin", ID: pp.PinID,
				From: string(pp.Status), To: string(status),
				Reason:          "pin is not awaiting review",
				AlreadyResolved: pp.Status.IsResolved(),
			}
		}
		latest, err := latestSubmission(ctx, repository.NewSQLiteSubmissionRepo(tx), t.pin.ID, req.StudentProfileID)
		if err != nil {
			return err
		}
		if latest == nil {
			return &domain.InvalidTransitionError{
				Entity: "pin", ID: pp.PinID, From: string(pp.Status), To: string(status),
				Reason: "no submission to review",
			}
		}
		c, err = s.resolve(ctx, r, t.pin, pp, status, req.Passed, latest.SubmittedAt)
		if c != nil {
			c.latest = latest
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["status"] = string(c.pp.Status)
	return s.finish(ctx, t, c), nil
}

func (s *progressionService) ListPendingReviews(ctx context.Context, teacherID, expeditionID string) ([]contract.PendingReview, error) {
	exp, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.requireTeacher(ctx, exp.ClassroomID, teacherID); err != nil {
		return nil, err
	}
	g, err := s.graphs.load(ctx, exp)
	if err != nil {
		return nil, err
	}
	rows, err := s.pinProgress.ListAwaitingReview(ctx, expeditionID)
	if err != nil {
		return nil, err
	}

	out := make([]contract.PendingReview, 0, len(rows))
	for _, pp := range rows {
		pin, ok := g.Pin(pp.PinID)
		if !ok {
			continue
		}
		latest, err := latestSubmission(ctx, s.submissions, pp.PinID, pp.StudentProfileID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			continue
		}
		out = append(out, contract.PendingReview{
			ExpeditionID:     exp.ID,
			ExpeditionName:   exp.Name,
			PinID:            pin.ID,
			PinName:          pin.Name,
			PinType:          string(pin.Type),
			StudentProfileID: pp.StudentProfileID,
			AttemptCount:     pp.AttemptCount,
			Submission:       contract.NewSubmissionView(latest, pin),
		})
	}
	return out, nil
}

func (s *progressionService) ListSubmissions(ctx context.Context, viewerID, pinID, studentID string) ([]contract.SubmissionView, error) {
	t, err := s.loadTarget(ctx, pinID)
	if err != nil {
		return nil, err
	}
	role, err := s.auth.canView(ctx, t.exp, viewerID)
	if err != nil {
		return nil, err
	}
	if viewerID != studentID && role != domain.RoleTeacher {
		return nil, &domain.UnauthorizedError{ProfileID: viewerID, Reason: "cannot view another student's submissions"}
	}
	subs, err := s.submissions.List(ctx, pinID, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]contract.SubmissionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, contract.NewSubmissionView(sub, t.pin))
	}
	return out, nil
}

func (s *progressionService) loadTarget(ctx context.Context, pinID string) (*target, error) {
	pin, err := s.pins.GetByID(ctx, pinID)
	if err != nil {
		return nil, err
	}
	exp, err := s.expeditions.GetByID(ctx, pin.ExpeditionID)
	if err != nil {
		return nil, err
	}
	g, err := s.graphs.load(ctx, exp)
	if err != nil {
		return nil, err
	}
	return &target{exp: exp, pin: pin, graph: g}, nil
}

// studentTarget loads the pin for a student action. Drafts look like missing
// pins to students.
func (s *progressionService) studentTarget(ctx context.Context, pinID, studentID string) (*target, error) {
	pin, err := s.pins.GetByID(ctx, pinID)
	if err != nil {
		return nil, err
	}
	exp, err := s.expeditions.GetByID(ctx, pin.ExpeditionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.auth.role(ctx, exp.ClassroomID, studentID); err != nil {
		return nil, err
	}
	if exp.Status == domain.ExpeditionDraft {
		return nil, &domain.NotFoundError{Entity: "pin", ID: pinID}
	}
	if err := checkAcceptsProgress(exp); err != nil {
		return nil, err
	}
	g, err := s.graphs.load(ctx, exp)
	if err != nil {
		return nil, err
	}
	return &target{exp: exp, pin: pin, graph: g}, nil
}

func checkAcceptsProgress(exp *domain.Expedition) error {
	if exp.AcceptsProgress() {
		return nil
	}
	return &domain.InvalidTransitionError{
		Entity: "expedition", ID: exp.ID, From: string(exp.Status),
		Reason: "expedition is not accepting progress",
	}
}

// openRun re-reads the expedition inside tx and loads the student's run,
// creating it on first visit.
func (s *progressionService) openRun(ctx context.Context, tx db.DBTX, t *target, studentID string) (*run, error) {
	current, err := repository.NewSQLiteExpeditionRepo(tx).GetByID(ctx, t.exp.ID)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptsProgress(current); err != nil {
		return nil, err
	}
	return s.loadRun(ctx, tx, current, t.graph, studentID, true)
}

// loadRun reads a student's progress through tx. With create set, a missing
// run is instantiated: entry pins start UNLOCKED, every other pin LOCKED.
func (s *progressionService) loadRun(ctx context.Context, tx db.DBTX, exp *domain.Expedition, g *graph.Graph, studentID string, create bool) (*run, error) {
	progressRepo := repository.NewSQLiteStudentProgressRepo(tx)
	pinProgressRepo := repository.NewSQLitePinProgressRepo(tx)
	r := &run{tx: tx, graph: g, pins: make(map[string]*domain.PinProgress)}

	progress, err := progressRepo.Get(ctx, exp.ID, studentID)
	switch {
	case err == nil:
		r.progress = progress
		pps, err := pinProgressRepo.ListByStudent(ctx, exp.ID, studentID)
		if err != nil {
			return nil, err
		}
		for _, pp := range pps {
			r.pins[pp.PinID] = pp
		}
		return r, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	case !create:
		return r, nil
	}

	now := s.now()
	r.progress = &domain.StudentExpeditionProgress{
		ID:               uuid.New().String(),
		ExpeditionID:     exp.ID,
		StudentProfileID: studentID,
		StartedAt:        now,
		UpdatedAt:        now,
	}
	if entries := g.EntryPins(); len(entries) > 0 {
		id := entries[0].ID
		r.progress.CurrentPinID = &id
	}
	if err := progressRepo.Create(ctx, r.progress); err != nil {
		return nil, err
	}
	for _, pin := range g.Pins() {
		pp := &domain.PinProgress{
			ID:               uuid.New().String(),
			ExpeditionID:     exp.ID,
			PinID:            pin.ID,
			StudentProfileID: studentID,
			Status:           domain.PinLocked,
			Version:          1,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if g.InitialStatus(pin.ID) == domain.PinUnlocked {
			pp.Unlock(now)
		}
		if err := pinProgressRepo.Create(ctx, pp); err != nil {
			return nil, err
		}
		r.pins[pin.ID] = pp
	}
	return r, nil
}

// resolve moves pp to a resolved status and propagates the outcome through
// r.tx: reward grant on success, unlocks, current pin and completion.
// rewardAt is the time the early bonus is judged against.
func (s *progressionService) resolve(ctx context.Context, r *run, pin *domain.Pin, pp *domain.PinProgress, status domain.PinStatus, decision *bool, rewardAt time.Time) (*change, error) {
	now := s.now()
	if err := pp.Resolve(status, decision, now); err != nil {
		return nil, err
	}
	c := &change{pp: pp, progress: r.progress, changed: true}

	if status.IsSuccess() {
		grant, err := reward.Issue(ctx, r.tx, pp, evaluation.Reward(pin, rewardAt), now)
		if err != nil {
			return nil, err
		}
		c.grant = grant
	}
	pinProgressRepo := repository.NewSQLitePinProgressRepo(r.tx)
	if err := pinProgressRepo.Update(ctx, pp); err != nil {
		return nil, err
	}

	outcome, _ := domain.OutcomeFor(status)
	for _, id := range r.graph.Resolve(pin.ID, outcome, r.statuses()) {
		next, ok := r.pins[id]
		if !ok || !next.Unlock(now) {
			continue
		}
		if err := pinProgressRepo.Update(ctx, next); err != nil {
			return nil, err
		}
		c.unlocked = append(c.unlocked, id)
	}

	if len(c.unlocked) > 0 {
		id := c.unlocked[0]
		r.progress.CurrentPinID = &id
	}
	if pin.Type == domain.PinFinal && status.IsSuccess() {
		c.completed = r.progress.Complete(r.graph.FinalScore(r.statuses()), now)
	}
	r.progress.UpdatedAt = now
	if err := repository.NewSQLiteStudentProgressRepo(r.tx).Update(ctx, r.progress); err != nil {
		return nil, err
	}
	return c, nil
}

// finish runs after commit: metrics, reward delivery and the result view.
// A failed delivery leaves the grant PENDING for RetryPending; it never fails
// the transition.
func (s *progressionService) finish(ctx context.Context, t *target, c *change) *contract.TransitionResult {
	if c.changed {
		s.metrics.PinTransition(string(c.pp.Status))
	}
	s.metrics.PinsUnlocked(len(c.unlocked))
	if c.completed {
		s.metrics.ExpeditionCompleted()
	}

	unlocked := c.unlocked
	if unlocked == nil {
		unlocked = []string{}
	}
	res := &contract.TransitionResult{
		ExpeditionID: t.exp.ID,
		PinProgress:  contract.NewPinProgressView(c.pp, lateFlag(t.pin, c.pp, c.latest, s.now())),
		Changed:      c.changed,
		Unlocked:     unlocked,
	}
	if c.progress != nil {
		res.CurrentPinID = c.progress.CurrentPinID
		res.ExpeditionCompleted = c.progress.IsCompleted
		res.FinalScore = c.progress.FinalScore
	}

	if c.grant != nil {
		g := c.grant
		if s.issuer != nil {
			delivered, err := s.issuer.Deliver(ctx, g.ID)
			if err != nil && !errors.Is(err, reward.ErrGrantBusy) {
				// The grant stays PENDING for the retry sweep.
				s.logger.WarnContext(ctx, "reward_delivery_deferred",
					"grant_id", g.ID, "student", g.StudentProfileID, "pin_id", g.PinID, "error", err.Error())
			}
			if delivered != nil {
				g = delivered
			}
		}
		res.Reward = contract.NewRewardView(g)
	}
	return res
}

func latestSubmission(ctx context.Context, subs repository.SubmissionRepo, pinID, studentID string) (*domain.Submission, error) {
	sub, err := subs.Latest(ctx, pinID, studentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// lateFlag judges the due date against the latest submission, else the
// resolution time, else now for pins still open.
func lateFlag(pin *domain.Pin, pp *domain.PinProgress, latest *domain.Submission, now time.Time) bool {
	if pin.DueDate == nil || pp.Status == domain.PinLocked {
		return false
	}
	switch {
	case latest != nil:
		return pin.IsLate(latest.SubmittedAt)
	case pp.ResolvedAt != nil:
		return pin.IsLate(*pp.ResolvedAt)
	default:
		return pin.IsLate(now)
	}
}
