package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Pragmas applied to every pooled connection through the DSN. Transactions start
// IMMEDIATE so concurrent writers on the same pin progress row serialize at BEGIN
// instead of failing at commit with a stale snapshot.
var connParams = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_txlock=immediate",
}

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database limited to one connection
// (each connection to :memory: would otherwise see its own empty database).
// File databases use WAL mode so readers never block on the single writer.
// Runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	memory := path == ":memory:"
	if !memory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	params := connParams
	if !memory {
		params = append([]string{"_pragma=journal_mode(WAL)"}, params...)
	}
	dsn := path + "?" + strings.Join(params, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
