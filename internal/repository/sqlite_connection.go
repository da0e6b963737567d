package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
)

// SQLiteConnectionRepo implements ConnectionRepo using a SQLite database.
type SQLiteConnectionRepo struct {
	db db.DBTX
}

func NewSQLiteConnectionRepo(db db.DBTX) *SQLiteConnectionRepo {
	return &SQLiteConnectionRepo{db: db}
}

const connectionColumns = `id, expedition_id, from_pin_id, to_pin_id, on_success, created_at, updated_at`

func (r *SQLiteConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	query := `INSERT INTO connections (` + connectionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.ExpeditionID,
		c.FromPinID,
		c.ToPinID,
		nullableBoolToValue(c.OnSuccess),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}
	return nil
}

func (r *SQLiteConnectionRepo) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	c, err := scanConnection(row)
	if err != nil {
		return nil, notFound(err, "connection", id)
	}
	return c, nil
}

func (r *SQLiteConnectionRepo) Exists(ctx context.Context, fromPinID, toPinID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections WHERE from_pin_id = ? AND to_pin_id = ?`, fromPinID, toPinID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking connection: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteConnectionRepo) ListByExpedition(ctx context.Context, expeditionID string) ([]*domain.Connection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE expedition_id = ? ORDER BY created_at, rowid`, expeditionID)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection row: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return conns, nil
}

// Update changes the edge condition. Endpoints are immutable.
func (r *SQLiteConnectionRepo) Update(ctx context.Context, c *domain.Connection) error {
	res, err := r.db.ExecContext(ctx, `UPDATE connections SET on_success = ?, updated_at = ? WHERE id = ?`,
		nullableBoolToValue(c.OnSuccess), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("updating connection: %w", err)
	}
	return requireRow(res, "connection", c.ID)
}

func (r *SQLiteConnectionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return requireRow(res, "connection", id)
}

func scanConnection(s scanner) (*domain.Connection, error) {
	var c domain.Connection
	var onSuccess sql.NullInt64
	var createdAt, updatedAt string

	if err := s.Scan(&c.ID, &c.ExpeditionID, &c.FromPinID, &c.ToPinID, &onSuccess, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.OnSuccess = nullableIntToBool(onSuccess)

	var err error
	if c.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
