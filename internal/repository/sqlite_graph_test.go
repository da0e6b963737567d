package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpeditionRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteExpeditionRepo(db)
	ctx := context.Background()

	exp := testutil.NewTestExpedition("Volcano Island", testutil.WithAutoProgress(true))
	exp.MapImageURL = "https://maps.example/volcano.png"
	require.NoError(t, repo.Create(ctx, exp))

	fetched, err := repo.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Volcano Island", fetched.Name)
	assert.Equal(t, domain.ExpeditionDraft, fetched.Status)
	assert.True(t, fetched.AutoProgress)
	assert.Equal(t, exp.MapImageURL, fetched.MapImageURL)
	assert.Nil(t, fetched.PublishedAt)
}

func TestExpeditionRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteExpeditionRepo(db)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpeditionRepo_UpdateStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteExpeditionRepo(db)
	ctx := context.Background()

	exp := testutil.NewTestExpedition("Arctic")
	require.NoError(t, repo.Create(ctx, exp))
	require.NoError(t, exp.Publish(1, time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, exp))

	fetched, err := repo.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpeditionPublished, fetched.Status)
	assert.NotNil(t, fetched.PublishedAt)
}

func TestExpeditionRepo_ListByClassroom(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteExpeditionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestExpedition("A", testutil.WithClassroom("c1"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestExpedition("B", testutil.WithClassroom("c1"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestExpedition("C", testutil.WithClassroom("c2"))))

	list, err := repo.ListByClassroom(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "B", list[1].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPinRepo_RoundTripOptionalFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp := testutil.NewTestExpedition("Jungle")
	require.NoError(t, NewSQLiteExpeditionRepo(db).Create(ctx, exp))
	repo := NewSQLitePinRepo(db)

	early := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	due := early.Add(48 * time.Hour)
	pin := testutil.NewTestPin(exp.ID, "River crossing",
		testutil.WithSubmission(),
		testutil.WithRewards(50, 10),
		testutil.WithEarlyBonus(early, 5, 2),
		testutil.WithDueDate(due),
		testutil.WithPinAutoProgress(false),
	)
	pin.PosX, pin.PosY = 12.5, 40
	require.NoError(t, repo.Create(ctx, pin))

	got, err := repo.GetByID(ctx, pin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PinObjective, got.Type)
	assert.True(t, got.RequiresSubmission)
	assert.Equal(t, 50, got.RewardXP)
	assert.Equal(t, 2, got.EarlyBonusGP)
	require.NotNil(t, got.EarlySubmissionDate)
	assert.True(t, early.Equal(*got.EarlySubmissionDate))
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	require.NotNil(t, got.AutoProgress)
	assert.False(t, *got.AutoProgress)
	assert.Equal(t, 12.5, got.PosX)

	plain := testutil.NewTestPin(exp.ID, "Camp", testutil.WithPinType(domain.PinIntro))
	require.NoError(t, repo.Create(ctx, plain))
	got, err = repo.GetByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AutoProgress, "unset override must stay nil")
	assert.Nil(t, got.DueDate)
}

func TestPinRepo_ListInCreationOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp := testutil.NewTestExpedition("Desert")
	require.NoError(t, NewSQLiteExpeditionRepo(db).Create(ctx, exp))
	repo := NewSQLitePinRepo(db)

	names := []string{"Oasis", "Dune", "Pyramid", "Sphinx"}
	for _, n := range names {
		require.NoError(t, repo.Create(ctx, testutil.NewTestPin(exp.ID, n)))
	}

	pins, err := repo.ListByExpedition(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, pins, len(names))
	for i, p := range pins {
		assert.Equal(t, names[i], p.Name)
	}

	n, err := repo.CountByExpedition(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPinRepo_DeleteCascadesConnections(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp := testutil.NewTestExpedition("Canyon")
	require.NoError(t, NewSQLiteExpeditionRepo(db).Create(ctx, exp))
	pins := NewSQLitePinRepo(db)
	conns := NewSQLiteConnectionRepo(db)

	a := testutil.NewTestPin(exp.ID, "A")
	b := testutil.NewTestPin(exp.ID, "B")
	c := testutil.NewTestPin(exp.ID, "C")
	for _, p := range []*domain.Pin{a, b, c} {
		require.NoError(t, pins.Create(ctx, p))
	}
	require.NoError(t, conns.Create(ctx, testutil.NewTestConnection(exp.ID, a.ID, b.ID, nil)))
	require.NoError(t, conns.Create(ctx, testutil.NewTestConnection(exp.ID, b.ID, c.ID, domain.BoolPtr(false))))

	require.NoError(t, pins.Delete(ctx, b.ID))

	remaining, err := conns.ListByExpedition(ctx, exp.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	err = pins.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConnectionRepo_ConditionRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	exp := testutil.NewTestExpedition("Reef")
	require.NoError(t, NewSQLiteExpeditionRepo(db).Create(ctx, exp))
	pins := NewSQLitePinRepo(db)
	repo := NewSQLiteConnectionRepo(db)

	a := testutil.NewTestPin(exp.ID, "A")
	b := testutil.NewTestPin(exp.ID, "B")
	require.NoError(t, pins.Create(ctx, a))
	require.NoError(t, pins.Create(ctx, b))

	conn := testutil.NewTestConnection(exp.ID, a.ID, b.ID, domain.BoolPtr(true))
	require.NoError(t, repo.Create(ctx, conn))

	exists, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	conn.OnSuccess = nil
	require.NoError(t, repo.Update(ctx, conn))
	got, err := repo.GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OnSuccess)
	assert.Equal(t, "always", got.ConditionLabel())

	require.NoError(t, repo.Delete(ctx, conn.ID))
	_, err = repo.GetByID(ctx, conn.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
