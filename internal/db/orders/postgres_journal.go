package ordersdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/journal"
)

// ErrAlreadyRecorded signals an order id that is already in the journal.
var ErrAlreadyRecorded = errors.New("order already recorded")

// PostgresJournal persists placed orders in Postgres. The insert is
// idempotent on order id, so a replayed entry cannot create a duplicate
// row.
type PostgresJournal struct {
	db *sql.DB
}

// NewPostgresJournal constructs a journal recorder backed by Postgres.
func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// NewPostgresJournalWithSchema initializes the schema then returns the
// journal.
func NewPostgresJournalWithSchema(ctx context.Context, db *sql.DB) (*PostgresJournal, error) {
	j := NewPostgresJournal(db)
	if err := j.InitSchema(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// InitSchema creates the placed_orders table if it does not exist.
func (j *PostgresJournal) InitSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS placed_orders (
			order_id TEXT PRIMARY KEY,
			total BIGINT NOT NULL,
			payment TEXT NOT NULL,
			items INT NOT NULL,
			placed_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Record inserts the entry. A repeated order id returns ErrAlreadyRecorded.
func (j *PostgresJournal) Record(ctx context.Context, e journal.Entry) error {
	if e.OrderID == "" {
		return fmt.Errorf("order id required")
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO placed_orders (order_id, total, payment, items, placed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING`,
		e.OrderID, e.Total, e.Payment, e.Items, e.PlacedAt,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyRecorded
	}
	return nil
}
