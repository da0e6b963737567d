package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

// Timestamps are stored as UTC RFC3339 text with a fixed nine-digit fraction,
// so text order matches time order and no precision is lost on a round trip.
// Parsing uses RFC3339Nano, which also accepts rows written without a fraction.
const (
	timeLayout      = "2006-01-02T15:04:05.000000000Z07:00"
	timeParseLayout = time.RFC3339Nano
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeParseLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(timeParseLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableTimeToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// nullableBoolToValue converts a *bool to NULL, 0 or 1.
func nullableBoolToValue(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func nullableIntToBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// notFound maps sql.ErrNoRows to a domain NotFoundError and wraps anything else.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("scanning %s: %w", entity, err)
}

// requireRow returns a NotFoundError when an UPDATE or DELETE touched no rows.
func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
