package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const ts = "2025-01-01T00:00:00Z"

func seedExpedition(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO expeditions (id, classroom_id, teacher_id, name, created_at, updated_at)
		VALUES ('e1', 'c1', 't1', 'Voyage', ?, ?)`, ts, ts)
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2"} {
		_, err = db.Exec(`INSERT INTO pins (id, expedition_id, pin_type, name, created_at, updated_at)
			VALUES (?, 'e1', 'OBJECTIVE', ?, ?, ?)`, id, id, ts, ts)
		require.NoError(t, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"expeditions", "pins", "connections", "student_expedition_progress",
		"pin_progress", "submissions", "reward_grants", "ledger_entries", "classroom_members",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenDB_FileUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "expeditions.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrate_ConnectionConstraints(t *testing.T) {
	db := openTestDB(t)
	seedExpedition(t, db)

	_, err := db.Exec(`INSERT INTO connections (id, expedition_id, from_pin_id, to_pin_id, created_at, updated_at)
		VALUES ('c1', 'e1', 'p1', 'p1', ?, ?)`, ts, ts)
	assert.Error(t, err, "self loop should violate CHECK")

	_, err = db.Exec(`INSERT INTO connections (id, expedition_id, from_pin_id, to_pin_id, created_at, updated_at)
		VALUES ('c1', 'e1', 'p1', 'p2', ?, ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO connections (id, expedition_id, from_pin_id, to_pin_id, created_at, updated_at)
		VALUES ('c2', 'e1', 'p1', 'p2', ?, ?)`, ts, ts)
	assert.Error(t, err, "duplicate pair should violate UNIQUE")
}

func TestMigrate_DeletingPinCascadesConnections(t *testing.T) {
	db := openTestDB(t)
	seedExpedition(t, db)

	_, err := db.Exec(`INSERT INTO connections (id, expedition_id, from_pin_id, to_pin_id, created_at, updated_at)
		VALUES ('c1', 'e1', 'p1', 'p2', ?, ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM pins WHERE id = 'p2'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM connections`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrate_PinProgressStatusCheck(t *testing.T) {
	db := openTestDB(t)
	seedExpedition(t, db)

	_, err := db.Exec(`INSERT INTO pin_progress (id, expedition_id, pin_id, student_profile_id, status, created_at, updated_at)
		VALUES ('pp1', 'e1', 'p1', 's1', 'DONE', ?, ?)`, ts, ts)
	assert.Error(t, err)

	_, err = db.Exec(`INSERT INTO pin_progress (id, expedition_id, pin_id, student_profile_id, status, created_at, updated_at)
		VALUES ('pp1', 'e1', 'p1', 's1', 'LOCKED', ?, ?)`, ts, ts)
	require.NoError(t, err)

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM pin_progress WHERE id = 'pp1'`).Scan(&version))
	assert.Equal(t, 1, version)
}

func TestMigrate_OneGrantPerPinProgress(t *testing.T) {
	db := openTestDB(t)
	seedExpedition(t, db)

	_, err := db.Exec(`INSERT INTO pin_progress (id, expedition_id, pin_id, student_profile_id, status, created_at, updated_at)
		VALUES ('pp1', 'e1', 'p1', 's1', 'PASSED', ?, ?)`, ts, ts)
	require.NoError(t, err)

	insert := `INSERT INTO reward_grants (id, pin_progress_id, pin_id, student_profile_id, xp, created_at)
		VALUES (?, 'pp1', 'p1', 's1', 10, ?)`
	_, err = db.Exec(insert, "g1", ts)
	require.NoError(t, err)
	_, err = db.Exec(insert, "g2", ts)
	assert.Error(t, err)
}

func TestMigrate_LedgerReasonUnique(t *testing.T) {
	db := openTestDB(t)

	insert := `INSERT INTO ledger_entries (id, student_profile_id, point_type, amount, reason, created_at)
		VALUES (?, 's1', 'XP', 10, 'grant g1 XP', ?)`
	_, err := db.Exec(insert, "l1", ts)
	require.NoError(t, err)
	_, err = db.Exec(insert, "l2", ts)
	assert.Error(t, err)
}
