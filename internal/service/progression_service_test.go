package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgression_ReviewedScenario(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)

	st := h.state(t, s.exp.ID, student1)
	require.NotNil(t, st.Progress)
	assert.Equal(t, "UNLOCKED", st.PinStatus(s.intro.ID))
	assert.Equal(t, "LOCKED", st.PinStatus(s.objective.ID))
	assert.Equal(t, "LOCKED", st.PinStatus(s.final.ID))
	require.NotNil(t, st.Progress.CurrentPinID)
	assert.Equal(t, s.intro.ID, *st.Progress.CurrentPinID)

	res := h.attempt(t, student1, s.intro.ID)
	assert.Equal(t, "COMPLETED", res.PinProgress.Status)
	assert.Equal(t, []string{s.objective.ID}, res.Unlocked)
	assert.Equal(t, s.objective.ID, *res.CurrentPinID)
	require.NotNil(t, res.Reward)
	assert.Equal(t, "DELIVERED", res.Reward.Status)

	res = h.submit(t, student1, s.objective.ID, "a.pdf")
	assert.Equal(t, "IN_PROGRESS", res.PinProgress.Status)
	assert.Empty(t, res.Unlocked)
	assert.Nil(t, res.Reward)

	pending, err := h.progress.ListPendingReviews(context.Background(), teacherID, s.exp.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, student1, pending[0].StudentProfileID)
	assert.Equal(t, []string{"a.pdf"}, pending[0].Submission.Files)

	res = h.decide(t, student1, s.objective.ID, true)
	assert.Equal(t, "PASSED", res.PinProgress.Status)
	require.NotNil(t, res.PinProgress.TeacherDecision)
	assert.True(t, *res.PinProgress.TeacherDecision)
	assert.Equal(t, []string{s.final.ID}, res.Unlocked, "pass edge only")
	require.NotNil(t, res.Reward)
	assert.Equal(t, 100, res.Reward.XP)
	assert.Equal(t, 20, res.Reward.GP)

	res = h.attempt(t, student1, s.final.ID)
	assert.Equal(t, "COMPLETED", res.PinProgress.Status)
	assert.True(t, res.ExpeditionCompleted)
	require.NotNil(t, res.FinalScore)
	assert.Equal(t, 100.0, *res.FinalScore)

	st = h.state(t, s.exp.ID, student1)
	assert.True(t, st.Progress.IsCompleted)
	assert.Equal(t, "LOCKED", st.PinStatus(s.remedial.ID))

	assert.Equal(t, 10+100+50, h.balance(t, student1, domain.PointXP))
	assert.Equal(t, 20, h.balance(t, student1, domain.PointGP))

	pending, err = h.progress.ListPendingReviews(context.Background(), teacherID, s.exp.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProgression_FailRetryPass(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)

	h.attempt(t, student1, s.intro.ID)
	h.submit(t, student1, s.objective.ID, "draft.pdf")

	res := h.decide(t, student1, s.objective.ID, false)
	assert.Equal(t, "FAILED", res.PinProgress.Status)
	assert.Equal(t, []string{s.remedial.ID}, res.Unlocked, "fail edge only")
	assert.Nil(t, res.Reward)

	res = h.submit(t, student1, s.objective.ID, "final.pdf")
	assert.Equal(t, "IN_PROGRESS", res.PinProgress.Status)
	assert.Equal(t, 2, res.PinProgress.AttemptCount)
	assert.Nil(t, res.PinProgress.TeacherDecision, "decision cleared on resubmission")

	res = h.decide(t, student1, s.objective.ID, true)
	assert.Equal(t, "PASSED", res.PinProgress.Status)
	require.NotNil(t, res.Reward)
	assert.Equal(t, 100, res.Reward.XP)

	// Remedial pin was reached, so it counts against the score until passed.
	res = h.attempt(t, student1, s.final.ID)
	require.NotNil(t, res.FinalScore)
	assert.Equal(t, 50.0, *res.FinalScore)

	grants, err := h.rewards.ListGrants(context.Background(), student1)
	require.NoError(t, err)
	var objectiveGrants int
	for _, g := range grants {
		if g.XP == 100 {
			objectiveGrants++
		}
	}
	assert.Equal(t, 1, objectiveGrants)
}

func TestProgression_LockedPinsRejectAttempts(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)
	ctx := context.Background()

	_, err := h.progress.AttemptPin(ctx, contract.AttemptRequest{StudentProfileID: student1, PinID: s.final.ID})
	var locked *domain.PinLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, s.final.ID, locked.PinID)

	_, err = h.progress.Submit(ctx, contract.SubmitRequest{StudentProfileID: student1, PinID: s.objective.ID, Files: []string{"x"}})
	assert.ErrorIs(t, err, domain.ErrPinLocked)
}

func TestProgression_DuplicateResolutionsAreRejected(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)
	ctx := context.Background()

	h.attempt(t, student1, s.intro.ID)
	_, err := h.progress.AttemptPin(ctx, contract.AttemptRequest{StudentProfileID: student1, PinID: s.intro.ID})
	var inv *domain.InvalidTransitionError
	require.ErrorAs(t, err, &inv)
	assert.True(t, inv.AlreadyResolved)

	h.submit(t, student1, s.objective.ID, "a.pdf")
	h.decide(t, student1, s.objective.ID, true)

	_, err = h.progress.SetTeacherDecision(ctx, decision(student1, s.objective.ID, false))
	require.ErrorAs(t, err, &inv)
	assert.True(t, inv.AlreadyResolved)
	assert.Contains(t, err.Error(), "already resolved")

	_, err = h.progress.Submit(ctx, contract.SubmitRequest{StudentProfileID: student1, PinID: s.objective.ID, Files: []string{"b.pdf"}})
	require.ErrorAs(t, err, &inv)
	assert.True(t, inv.AlreadyResolved)

	assert.Equal(t, 10+100, h.balance(t, student1, domain.PointXP), "rewards credited once")
}

func TestProgression_DecisionGuards(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)
	ctx := context.Background()
	h.attempt(t, student1, s.intro.ID)

	// UNLOCKED, not yet submitted.
	_, err := h.progress.SetTeacherDecision(ctx, decision(student1, s.objective.ID, true))
	var inv *domain.InvalidTransitionError
	require.ErrorAs(t, err, &inv)
	assert.False(t, inv.AlreadyResolved)

	// Opened without a submission.
	h.attempt(t, student1, s.objective.ID)
	_, err = h.progress.SetTeacherDecision(ctx, decision(student1, s.objective.ID, true))
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Reason, "no submission")

	// Pin without submission.
	_, err = h.progress.SetTeacherDecision(ctx, decision(student1, s.intro.ID, true))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Student never started.
	_, err = h.progress.SetTeacherDecision(ctx, decision(student2, s.objective.ID, true))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Only teachers decide.
	req := decision(student1, s.objective.ID, true)
	req.TeacherProfileID = student2
	_, err = h.progress.SetTeacherDecision(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestProgression_SubmitToContinuePinRejected(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)

	_, err := h.progress.Submit(context.Background(), contract.SubmitRequest{StudentProfileID: student1, PinID: s.intro.ID, Files: []string{"x"}})
	var inv *domain.InvalidTransitionError
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Reason, "does not accept submissions")
}

func TestProgression_AttemptOpensSubmissionPin(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)
	h.attempt(t, student1, s.intro.ID)

	res := h.attempt(t, student1, s.objective.ID)
	assert.True(t, res.Changed)
	assert.Equal(t, "IN_PROGRESS", res.PinProgress.Status)

	res = h.attempt(t, student1, s.objective.ID)
	assert.False(t, res.Changed)
	assert.Equal(t, "IN_PROGRESS", res.PinProgress.Status)

	res = h.submit(t, student1, s.objective.ID, "a.pdf")
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.PinProgress.AttemptCount)
}

func TestProgression_AutoProgressNarrativeSubmission(t *testing.T) {
	h := newHarness(t)
	exp := h.expedition(t, "Auto", true)
	intro := h.pin(t, exp.ID, contract.PinFields{Type: "INTRO", Name: "Journal", RequiresSubmission: true, RewardXP: 5})
	final := h.pin(t, exp.ID, contract.PinFields{
		Type: "FINAL", Name: "Reflection", RequiresSubmission: true, AutoProgress: domain.BoolPtr(false),
	})
	h.connect(t, exp.ID, intro.ID, final.ID, nil)
	h.publish(t, exp.ID)

	res := h.submit(t, student1, intro.ID, "journal.txt")
	assert.Equal(t, "COMPLETED", res.PinProgress.Status)
	assert.Equal(t, []string{final.ID}, res.Unlocked)

	res = h.submit(t, student1, final.ID, "reflection.txt")
	assert.Equal(t, "IN_PROGRESS", res.PinProgress.Status, "pin override disables auto progress")

	res = h.decide(t, student1, final.ID, true)
	assert.Equal(t, "COMPLETED", res.PinProgress.Status)
	assert.True(t, res.ExpeditionCompleted)
	assert.Equal(t, 100.0, *res.FinalScore, "no reachable objectives")
}

func TestProgression_EarlyBonusAndLateFlag(t *testing.T) {
	h := newHarness(t)
	exp := h.expedition(t, "Deadlines", false)
	future := time.Now().UTC().Add(48 * time.Hour)
	past := time.Now().UTC().Add(-48 * time.Hour)

	early := h.pin(t, exp.ID, contract.PinFields{
		Type: "OBJECTIVE", Name: "Early", RequiresSubmission: true, RewardXP: 10, RewardGP: 1,
		EarlySubmissionEnabled: true, EarlySubmissionDate: &future, EarlyBonusXP: 5, EarlyBonusGP: 2,
	})
	late := h.pin(t, exp.ID, contract.PinFields{
		Type: "OBJECTIVE", Name: "Overdue", RequiresSubmission: true, RewardXP: 10, DueDate: &past,
		EarlySubmissionEnabled: true, EarlySubmissionDate: &past, EarlyBonusXP: 5,
	})
	h.publish(t, exp.ID)

	h.submit(t, student1, early.ID, "e.pdf")
	res := h.decide(t, student1, early.ID, true)
	require.NotNil(t, res.Reward)
	assert.True(t, res.Reward.EarlyBonus)
	assert.Equal(t, 15, res.Reward.XP)
	assert.Equal(t, 3, res.Reward.GP)
	assert.False(t, res.PinProgress.Late)

	res = h.submit(t, student1, late.ID, "l.pdf")
	assert.True(t, res.PinProgress.Late)
	res = h.decide(t, student1, late.ID, true)
	require.NotNil(t, res.Reward)
	assert.False(t, res.Reward.EarlyBonus)
	assert.Equal(t, 10, res.Reward.XP)

	st := h.state(t, exp.ID, student1)
	for _, pp := range st.PinProgress {
		assert.Equal(t, pp.PinID == late.ID, pp.Late, pp.PinID)
	}
}

func TestProgression_EarlyBonusSubSecondDeadline(t *testing.T) {
	h := newHarness(t)
	deadline := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	h.withClock(func() time.Time { return deadline.Add(500 * time.Millisecond) })

	exp := h.expedition(t, "Photo Finish", true)
	fields := func(name string, auto bool) contract.PinFields {
		return contract.PinFields{
			Type: "INTRO", Name: name, RequiresSubmission: true, RewardXP: 10, AutoProgress: domain.BoolPtr(auto),
			EarlySubmissionEnabled: true, EarlySubmissionDate: &deadline, EarlyBonusXP: 5,
		}
	}
	auto := h.pin(t, exp.ID, fields("Auto", true))
	reviewed := h.pin(t, exp.ID, fields("Reviewed", false))
	h.publish(t, exp.ID)

	res := h.submit(t, student1, auto.ID, "a.pdf")
	require.NotNil(t, res.Reward)
	assert.False(t, res.Reward.EarlyBonus, "half a second late")

	h.submit(t, student1, reviewed.ID, "r.pdf")
	res = h.decide(t, student1, reviewed.ID, true)
	require.NotNil(t, res.Reward)
	assert.False(t, res.Reward.EarlyBonus, "stored submission time keeps its fraction")
	assert.Equal(t, 10, res.Reward.XP)
}

func TestProgression_StateVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scenario(t)

	_, err := h.progress.GetExpeditionState(ctx, student2, s.exp.ID, student1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Teachers see the graph without starting the student's run.
	st, err := h.progress.GetExpeditionState(ctx, teacherID, s.exp.ID, student1)
	require.NoError(t, err)
	assert.Nil(t, st.Progress)
	assert.Empty(t, st.PinProgress)

	draft := h.expedition(t, "Hidden", false)
	_, err = h.progress.GetExpeditionState(ctx, student1, draft.ID, student1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.progress.GetExpeditionState(ctx, "outsider", s.exp.ID, "outsider")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestProgression_ArchivedKeepsHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scenario(t)
	h.attempt(t, student1, s.intro.ID)

	_, err := h.graph.Archive(ctx, teacherID, s.exp.ID)
	require.NoError(t, err)

	st := h.state(t, s.exp.ID, student1)
	require.NotNil(t, st.Progress)
	assert.Equal(t, "COMPLETED", st.PinStatus(s.intro.ID))

	st = h.state(t, s.exp.ID, student2)
	assert.Nil(t, st.Progress, "no new runs on archived expeditions")

	_, err = h.progress.Submit(ctx, contract.SubmitRequest{StudentProfileID: student1, PinID: s.objective.ID, Files: []string{"a"}})
	var inv *domain.InvalidTransitionError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "expedition", inv.Entity)
}

func TestProgression_StudentsProgressIndependently(t *testing.T) {
	h := newHarness(t)
	s := h.scenario(t)

	h.attempt(t, student1, s.intro.ID)
	h.submit(t, student1, s.objective.ID, "a.pdf")
	h.decide(t, student1, s.objective.ID, true)

	st := h.state(t, s.exp.ID, student2)
	assert.Equal(t, "UNLOCKED", st.PinStatus(s.intro.ID))
	assert.Equal(t, "LOCKED", st.PinStatus(s.objective.ID))
	assert.Equal(t, 0, h.balance(t, student2, domain.PointXP))
}

func TestProgression_ListSubmissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scenario(t)
	h.attempt(t, student1, s.intro.ID)
	h.submit(t, student1, s.objective.ID, "one.pdf")
	h.submit(t, student1, s.objective.ID, "two.pdf")

	subs, err := h.progress.ListSubmissions(ctx, teacherID, s.objective.ID, student1)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, []string{"one.pdf"}, subs[0].Files)

	_, err = h.progress.ListSubmissions(ctx, student2, s.objective.ID, student1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
