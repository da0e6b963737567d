package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/importer"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/alexanderramin/expeditions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trailYAML = `
expedition:
  name: River Trail
  classroom_id: class-1
  publish: true
pins:
  - ref: start
    type: INTRO
    name: Trailhead
  - ref: bridge
    type: OBJECTIVE
    name: Bridge Sketch
    requires_submission: true
    reward: {xp: 40, gp: 5}
  - ref: end
    type: FINAL
    name: Waterfall
connections:
  - from: start
    to: bridge
  - from: bridge
    to: end
    when: pass
`

func TestImportService_ImportAndPlay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewImportService(external.NewSQLiteRoster(h.db), testutil.NewTestUoW(h.db))

	path := filepath.Join(t.TempDir(), "trail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(trailYAML), 0o644))

	res, err := svc.ImportExpedition(ctx, teacherID, path)
	require.NoError(t, err)
	assert.Equal(t, 3, res.PinCount)
	assert.Equal(t, 2, res.ConnectionCount)
	assert.True(t, res.Published)
	assert.Equal(t, "PUBLISHED", res.Expedition.Status)

	view, err := h.graph.GetGraph(ctx, student1, res.Expedition.ID)
	require.NoError(t, err)
	require.Len(t, view.Pins, 3)
	assert.Equal(t, "Trailhead", view.Pins[0].Name)

	st := h.state(t, res.Expedition.ID, student1)
	assert.Equal(t, "UNLOCKED", st.PinStatus(view.Pins[0].ID))
	assert.Equal(t, "LOCKED", st.PinStatus(view.Pins[1].ID))
}

func TestImportService_ValidationErrors(t *testing.T) {
	h := newHarness(t)
	svc := NewImportService(external.NewSQLiteRoster(h.db), testutil.NewTestUoW(h.db))

	schema, err := importer.Parse([]byte(`
expedition: {name: Broken, classroom_id: class-1}
pins:
  - {ref: a, type: INTRO, name: A}
connections:
  - {from: a, to: a}
`))
	require.NoError(t, err)

	_, err = svc.ImportExpeditionFromSchema(context.Background(), teacherID, schema)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "cannot connect to itself")
}

func TestImportService_RequiresTeacher(t *testing.T) {
	h := newHarness(t)
	svc := NewImportService(external.NewSQLiteRoster(h.db), testutil.NewTestUoW(h.db))
	schema, err := importer.Parse([]byte(trailYAML))
	require.NoError(t, err)

	_, err = svc.ImportExpeditionFromSchema(context.Background(), student1, schema)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestImportService_RollbackOnFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	failUoW := &testutil.FailOnNthExecUoW{DB: h.db, FailOnSQL: "INSERT INTO connections", Err: assert.AnError}
	svc := NewImportService(external.NewSQLiteRoster(h.db), failUoW)
	schema, err := importer.Parse([]byte(trailYAML))
	require.NoError(t, err)

	_, err = svc.ImportExpeditionFromSchema(ctx, teacherID, schema)
	require.ErrorIs(t, err, assert.AnError)

	exps, err := repository.NewSQLiteExpeditionRepo(h.db).ListByClassroom(ctx, classID)
	require.NoError(t, err)
	assert.Empty(t, exps)
}
