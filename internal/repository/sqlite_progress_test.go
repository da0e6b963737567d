package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPins creates a published expedition with one submission pin per name.
func seedPins(t *testing.T, db *sql.DB, names ...string) (*domain.Expedition, []*domain.Pin) {
	t.Helper()
	ctx := context.Background()
	exp := testutil.NewTestExpedition("Sky", testutil.WithExpeditionStatus(domain.ExpeditionPublished))
	require.NoError(t, NewSQLiteExpeditionRepo(db).Create(ctx, exp))

	pinRepo := NewSQLitePinRepo(db)
	var pins []*domain.Pin
	for _, n := range names {
		p := testutil.NewTestPin(exp.ID, n, testutil.WithSubmission())
		require.NoError(t, pinRepo.Create(ctx, p))
		pins = append(pins, p)
	}
	return exp, pins
}

func TestStudentProgressRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp, pins := seedPins(t, db, "Start")
	repo := NewSQLiteStudentProgressRepo(db)

	sp := testutil.NewTestStudentProgress(exp.ID, "stu-1")
	sp.CurrentPinID = &pins[0].ID
	require.NoError(t, repo.Create(ctx, sp))

	got, err := repo.Get(ctx, exp.ID, "stu-1")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentPinID)
	assert.Equal(t, pins[0].ID, *got.CurrentPinID)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.FinalScore)

	require.True(t, got.Complete(66.5, time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, exp.ID, "stu-1")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.FinalScore)
	assert.InDelta(t, 66.5, *got.FinalScore, 0.001)
	assert.NotNil(t, got.CompletedAt)

	_, err = repo.Get(ctx, exp.ID, "stu-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStudentProgressRepo_UniquePerStudent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp, _ := seedPins(t, db, "Start")
	repo := NewSQLiteStudentProgressRepo(db)

	require.NoError(t, repo.Create(ctx, testutil.NewTestStudentProgress(exp.ID, "stu-1")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestStudentProgress(exp.ID, "stu-1")))
}

func TestPinProgressRepo_VersionCompareAndSwap(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, pins := seedPins(t, db, "Essay")
	repo := NewSQLitePinProgressRepo(db)

	pp := testutil.NewTestPinProgress(pins[0], "stu-1", domain.PinUnlocked)
	require.NoError(t, repo.Create(ctx, pp))

	first, err := repo.Get(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, first.Start(now))
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, second.Resolve(domain.PinPassed, domain.BoolPtr(true), now))
	err = repo.Update(ctx, second)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "stale version must be rejected")

	stored, err := repo.Get(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PinInProgress, stored.Status)
	assert.Equal(t, 1, stored.AttemptCount)
	assert.Equal(t, 2, stored.Version)
}

func TestPinProgressRepo_ListByStudentFollowsPinOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp, pins := seedPins(t, db, "One", "Two", "Three")
	repo := NewSQLitePinProgressRepo(db)

	// Insert out of order.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, repo.Create(ctx, testutil.NewTestPinProgress(pins[i], "stu-1", domain.PinLocked)))
	}
	require.NoError(t, repo.Create(ctx, testutil.NewTestPinProgress(pins[0], "stu-2", domain.PinUnlocked)))

	list, err := repo.ListByStudent(ctx, exp.ID, "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, pp := range list {
		assert.Equal(t, pins[i].ID, pp.PinID)
	}
}

func TestPinProgressRepo_ListAwaitingReview(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp, pins := seedPins(t, db, "Essay", "Poster")
	repo := NewSQLitePinProgressRepo(db)
	subs := NewSQLiteSubmissionRepo(db)

	submitted := testutil.NewTestPinProgress(pins[0], "stu-1", domain.PinInProgress)
	openedOnly := testutil.NewTestPinProgress(pins[1], "stu-1", domain.PinInProgress)
	require.NoError(t, repo.Create(ctx, submitted))
	require.NoError(t, repo.Create(ctx, openedOnly))
	require.NoError(t, subs.Create(ctx, &domain.Submission{
		ID: "s1", PinID: pins[0].ID, StudentProfileID: "stu-1",
		Files: []string{"https://files.example/essay.pdf"}, SubmittedAt: time.Now().UTC(),
	}))

	list, err := repo.ListAwaitingReview(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, submitted.ID, list[0].ID)
}

func TestSubmissionRepo_LatestAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, pins := seedPins(t, db, "Essay")
	repo := NewSQLiteSubmissionRepo(db)

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.Submission{
		ID: "s1", PinID: pins[0].ID, StudentProfileID: "stu-1",
		Files: []string{"a.pdf"}, Comment: "draft", SubmittedAt: base,
	}))
	require.NoError(t, repo.Create(ctx, &domain.Submission{
		ID: "s2", PinID: pins[0].ID, StudentProfileID: "stu-1",
		Comment: "final", SubmittedAt: base.Add(time.Hour),
	}))

	latest, err := repo.Latest(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "s2", latest.ID)
	assert.Empty(t, latest.Files)

	all, err := repo.List(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"a.pdf"}, all[0].Files)

	_, err = repo.Latest(ctx, pins[0].ID, "stu-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmissionRepo_SubSecondTimes(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, pins := seedPins(t, db, "Essay")
	repo := NewSQLiteSubmissionRepo(db)

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.Submission{
		ID: "s1", PinID: pins[0].ID, StudentProfileID: "stu-1", SubmittedAt: base.Add(900 * time.Millisecond),
	}))
	require.NoError(t, repo.Create(ctx, &domain.Submission{
		ID: "s2", PinID: pins[0].ID, StudentProfileID: "stu-1", SubmittedAt: base.Add(time.Second),
	}))

	latest, err := repo.Latest(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "s2", latest.ID, "whole seconds sort after earlier fractions")

	all, err := repo.List(ctx, pins[0].ID, "stu-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].SubmittedAt.Equal(base.Add(900*time.Millisecond)))

	pin := &domain.Pin{EarlySubmissionEnabled: true, EarlySubmissionDate: &base}
	assert.False(t, pin.QualifiesForEarlyBonus(all[0].SubmittedAt))
}
