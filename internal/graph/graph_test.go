package graph

import (
	"testing"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// branching builds: intro -> quiz; quiz -(pass)-> final; quiz -(fail)-> remedial; remedial -> quiz2; quiz2 -> final.
func branching(t *testing.T) (*Graph, map[string]*domain.Pin) {
	t.Helper()
	exp := "exp-1"
	p := map[string]*domain.Pin{
		"intro":    testutil.NewTestPin(exp, "Intro", testutil.WithPinType(domain.PinIntro)),
		"quiz":     testutil.NewTestPin(exp, "Quiz", testutil.WithSubmission()),
		"remedial": testutil.NewTestPin(exp, "Remedial"),
		"quiz2":    testutil.NewTestPin(exp, "Quiz 2"),
		"final":    testutil.NewTestPin(exp, "Final", testutil.WithPinType(domain.PinFinal)),
	}
	pins := []*domain.Pin{p["intro"], p["quiz"], p["remedial"], p["quiz2"], p["final"]}
	conns := []*domain.Connection{
		testutil.NewTestConnection(exp, p["intro"].ID, p["quiz"].ID, nil),
		testutil.NewTestConnection(exp, p["quiz"].ID, p["final"].ID, domain.BoolPtr(true)),
		testutil.NewTestConnection(exp, p["quiz"].ID, p["remedial"].ID, domain.BoolPtr(false)),
		testutil.NewTestConnection(exp, p["remedial"].ID, p["quiz2"].ID, nil),
		testutil.NewTestConnection(exp, p["quiz2"].ID, p["final"].ID, nil),
	}
	g, err := New(exp, pins, conns)
	require.NoError(t, err)
	return g, p
}

func TestSatisfied(t *testing.T) {
	tests := []struct {
		name      string
		onSuccess *bool
		outcome   domain.Outcome
		want      bool
	}{
		{"always on pass", nil, domain.OutcomePass, true},
		{"always on fail", nil, domain.OutcomeFail, true},
		{"always on complete", nil, domain.OutcomeComplete, true},
		{"success edge on pass", domain.BoolPtr(true), domain.OutcomePass, true},
		{"success edge on complete", domain.BoolPtr(true), domain.OutcomeComplete, true},
		{"success edge on fail", domain.BoolPtr(true), domain.OutcomeFail, false},
		{"failure edge on fail", domain.BoolPtr(false), domain.OutcomeFail, true},
		{"failure edge on pass", domain.BoolPtr(false), domain.OutcomePass, false},
		{"failure edge on complete", domain.BoolPtr(false), domain.OutcomeComplete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Connection{OnSuccess: tt.onSuccess}
			assert.Equal(t, tt.want, Satisfied(c, tt.outcome))
		})
	}
}

func TestEntryPinsAndInitialStatus(t *testing.T) {
	g, p := branching(t)

	entries := g.EntryPins()
	require.Len(t, entries, 1)
	assert.Equal(t, p["intro"].ID, entries[0].ID)
	assert.Equal(t, domain.PinUnlocked, g.InitialStatus(p["intro"].ID))
	assert.Equal(t, domain.PinLocked, g.InitialStatus(p["final"].ID))
}

func TestResolve_BranchesByOutcome(t *testing.T) {
	g, p := branching(t)
	statuses := map[string]domain.PinStatus{}

	assert.Equal(t, []string{p["final"].ID}, g.Resolve(p["quiz"].ID, domain.OutcomePass, statuses))
	assert.Equal(t, []string{p["remedial"].ID}, g.Resolve(p["quiz"].ID, domain.OutcomeFail, statuses))
}

func TestResolve_SkipsAlreadyReachable(t *testing.T) {
	g, p := branching(t)
	statuses := map[string]domain.PinStatus{p["final"].ID: domain.PinUnlocked}

	assert.Empty(t, g.Resolve(p["quiz2"].ID, domain.OutcomePass, statuses), "OR semantics: already unlocked target is not unlocked again")
}

func TestResolve_CreationOrder(t *testing.T) {
	exp := "exp-2"
	hub := testutil.NewTestPin(exp, "Hub")
	a := testutil.NewTestPin(exp, "A")
	b := testutil.NewTestPin(exp, "B")
	c := testutil.NewTestPin(exp, "C")
	conns := []*domain.Connection{
		testutil.NewTestConnection(exp, hub.ID, c.ID, nil),
		testutil.NewTestConnection(exp, hub.ID, a.ID, nil),
		testutil.NewTestConnection(exp, hub.ID, b.ID, domain.BoolPtr(true)),
	}
	g, err := New(exp, []*domain.Pin{hub, a, b, c}, conns)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, b.ID, c.ID}, g.Resolve(hub.ID, domain.OutcomeComplete, nil))
}

func TestNew_RejectsCrossExpeditionEdge(t *testing.T) {
	a := testutil.NewTestPin("exp-1", "A")
	b := testutil.NewTestPin("exp-2", "B")

	_, err := New("exp-1", []*domain.Pin{a}, []*domain.Connection{testutil.NewTestConnection("exp-1", a.ID, b.ID, nil)})
	assert.Error(t, err)

	_, err = New("exp-1", []*domain.Pin{a, b}, nil)
	assert.Error(t, err)
}

func TestCheckStartable(t *testing.T) {
	g, _ := branching(t)
	require.NoError(t, g.CheckStartable())

	exp := "exp-2"
	intro := testutil.NewTestPin(exp, "Intro", testutil.WithPinType(domain.PinIntro))
	a := testutil.NewTestPin(exp, "A")
	b := testutil.NewTestPin(exp, "B")

	g, err := New(exp, []*domain.Pin{intro, a}, []*domain.Connection{
		testutil.NewTestConnection(exp, intro.ID, a.ID, nil),
		testutil.NewTestConnection(exp, a.ID, intro.ID, nil),
	})
	require.NoError(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, g.CheckStartable(), &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "connections", verr.Fields[0].Field)
	assert.Equal(t, "pins", verr.Fields[1].Field)

	g, err = New(exp, []*domain.Pin{a, b}, []*domain.Connection{
		testutil.NewTestConnection(exp, a.ID, b.ID, nil),
		testutil.NewTestConnection(exp, b.ID, a.ID, nil),
	})
	require.NoError(t, err)
	require.ErrorAs(t, g.CheckStartable(), &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "pins", verr.Fields[0].Field)
}

func TestFinalScore(t *testing.T) {
	g, p := branching(t)

	t.Run("counts only reachable objectives", func(t *testing.T) {
		statuses := map[string]domain.PinStatus{
			p["intro"].ID:    domain.PinCompleted,
			p["quiz"].ID:     domain.PinFailed,
			p["remedial"].ID: domain.PinPassed,
			p["quiz2"].ID:    domain.PinPassed,
			p["final"].ID:    domain.PinCompleted,
		}
		assert.InDelta(t, 66.666, g.FinalScore(statuses), 0.01)
	})

	t.Run("locked branch excluded", func(t *testing.T) {
		statuses := map[string]domain.PinStatus{
			p["intro"].ID:    domain.PinCompleted,
			p["quiz"].ID:     domain.PinPassed,
			p["remedial"].ID: domain.PinLocked,
			p["quiz2"].ID:    domain.PinLocked,
			p["final"].ID:    domain.PinCompleted,
		}
		assert.Equal(t, 100.0, g.FinalScore(statuses))
	})

	t.Run("no objectives reachable", func(t *testing.T) {
		assert.Equal(t, 100.0, g.FinalScore(map[string]domain.PinStatus{p["intro"].ID: domain.PinCompleted}))
	})
}

func TestCache(t *testing.T) {
	g, _ := branching(t)
	c := NewCache()

	_, ok := c.Get(g.ExpeditionID())
	assert.False(t, ok)
	c.Put(g)
	got, ok := c.Get(g.ExpeditionID())
	require.True(t, ok)
	assert.Same(t, g, got)
}
