package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS expeditions (
		id             TEXT PRIMARY KEY,
		classroom_id   TEXT NOT NULL,
		teacher_id     TEXT NOT NULL,
		name           TEXT NOT NULL,
		map_image_url  TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'DRAFT'
		               CHECK(status IN ('DRAFT','PUBLISHED','ARCHIVED')),
		auto_progress  INTEGER NOT NULL DEFAULT 0,
		published_at   TEXT,
		archived_at    TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS pins (
		id                        TEXT PRIMARY KEY,
		expedition_id             TEXT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
		pin_type                  TEXT NOT NULL CHECK(pin_type IN ('INTRO','OBJECTIVE','FINAL')),
		name                      TEXT NOT NULL,
		story                     TEXT NOT NULL DEFAULT '',
		pos_x                     REAL NOT NULL DEFAULT 0,
		pos_y                     REAL NOT NULL DEFAULT 0,
		requires_submission       INTEGER NOT NULL DEFAULT 0,
		due_date                  TEXT,
		early_submission_enabled  INTEGER NOT NULL DEFAULT 0,
		early_submission_date     TEXT,
		reward_xp                 INTEGER NOT NULL DEFAULT 0 CHECK(reward_xp >= 0),
		reward_gp                 INTEGER NOT NULL DEFAULT 0 CHECK(reward_gp >= 0),
		early_bonus_xp            INTEGER NOT NULL DEFAULT 0 CHECK(early_bonus_xp >= 0),
		early_bonus_gp            INTEGER NOT NULL DEFAULT 0 CHECK(early_bonus_gp >= 0),
		auto_progress             INTEGER,
		created_at                TEXT NOT NULL,
		updated_at                TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS connections (
		id             TEXT PRIMARY KEY,
		expedition_id  TEXT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
		from_pin_id    TEXT NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		to_pin_id      TEXT NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		on_success     INTEGER,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		UNIQUE(from_pin_id, to_pin_id),
		CHECK(from_pin_id <> to_pin_id)
	)`,

	`CREATE TABLE IF NOT EXISTS student_expedition_progress (
		id                  TEXT PRIMARY KEY,
		expedition_id       TEXT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
		student_profile_id  TEXT NOT NULL,
		current_pin_id      TEXT,
		is_completed        INTEGER NOT NULL DEFAULT 0,
		completed_at        TEXT,
		final_score         REAL,
		started_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE(expedition_id, student_profile_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pin_progress (
		id                  TEXT PRIMARY KEY,
		expedition_id       TEXT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
		pin_id              TEXT NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		student_profile_id  TEXT NOT NULL,
		status              TEXT NOT NULL
		                    CHECK(status IN ('LOCKED','UNLOCKED','IN_PROGRESS','PASSED','FAILED','COMPLETED')),
		teacher_decision    INTEGER,
		rewards_issued      INTEGER NOT NULL DEFAULT 0,
		attempt_count       INTEGER NOT NULL DEFAULT 0,
		version             INTEGER NOT NULL DEFAULT 1,
		unlocked_at         TEXT,
		started_at          TEXT,
		resolved_at         TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE(pin_id, student_profile_id)
	)`,

	`CREATE TABLE IF NOT EXISTS submissions (
		id                  TEXT PRIMARY KEY,
		pin_id              TEXT NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		student_profile_id  TEXT NOT NULL,
		files               TEXT NOT NULL DEFAULT '[]',
		comment             TEXT NOT NULL DEFAULT '',
		submitted_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS reward_grants (
		id                  TEXT PRIMARY KEY,
		pin_progress_id     TEXT NOT NULL UNIQUE REFERENCES pin_progress(id) ON DELETE CASCADE,
		pin_id              TEXT NOT NULL,
		student_profile_id  TEXT NOT NULL,
		xp                  INTEGER NOT NULL DEFAULT 0,
		gp                  INTEGER NOT NULL DEFAULT 0,
		early_bonus         INTEGER NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'PENDING' CHECK(status IN ('PENDING','DELIVERED')),
		xp_delivered        INTEGER NOT NULL DEFAULT 0,
		gp_delivered        INTEGER NOT NULL DEFAULT 0,
		attempts            INTEGER NOT NULL DEFAULT 0,
		last_error          TEXT NOT NULL DEFAULT '',
		claimed_until       TEXT,
		created_at          TEXT NOT NULL,
		delivered_at        TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id                  TEXT PRIMARY KEY,
		student_profile_id  TEXT NOT NULL,
		point_type          TEXT NOT NULL CHECK(point_type IN ('XP','GP')),
		amount              INTEGER NOT NULL,
		reason              TEXT NOT NULL,
		created_at          TEXT NOT NULL,
		UNIQUE(student_profile_id, point_type, reason)
	)`,

	`CREATE TABLE IF NOT EXISTS classroom_members (
		classroom_id  TEXT NOT NULL,
		profile_id    TEXT NOT NULL,
		role          TEXT NOT NULL CHECK(role IN ('TEACHER','STUDENT')),
		created_at    TEXT NOT NULL,
		PRIMARY KEY(classroom_id, profile_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_expeditions_classroom ON expeditions(classroom_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pins_expedition ON pins(expedition_id)`,
	`CREATE INDEX IF NOT EXISTS idx_connections_expedition ON connections(expedition_id)`,
	`CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_pin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pin_progress_student ON pin_progress(expedition_id, student_profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pin_progress_status ON pin_progress(pin_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_pin_student ON submissions(pin_id, student_profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reward_grants_status ON reward_grants(status)`,
}
