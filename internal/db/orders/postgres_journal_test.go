package ordersdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"storefront/internal/journal"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	}

	return db, mock, cleanup
}

func sampleEntry() journal.Entry {
	return journal.Entry{
		OrderID:  "order-1",
		Total:    750,
		Payment:  "online",
		Items:    2,
		PlacedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresJournal_InitSchema(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS placed_orders").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	j := NewPostgresJournal(db)
	if err := j.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
}

func TestPostgresJournal_WithSchemaHelper(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS placed_orders").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	j, err := NewPostgresJournalWithSchema(context.Background(), db)
	if err != nil {
		t.Fatalf("helper: %v", err)
	}
	if j == nil {
		t.Fatalf("expected journal")
	}
}

func TestPostgresJournal_WithSchemaHelperError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS placed_orders").
		WillReturnError(errors.New("boom"))
	mock.ExpectClose()

	j, err := NewPostgresJournalWithSchema(context.Background(), db)
	if err == nil {
		t.Fatalf("expected error")
	}
	if j != nil {
		t.Fatalf("expected nil journal on error")
	}
}

func TestPostgresJournal_RecordSucceedsOnce(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("INSERT INTO placed_orders").
		WithArgs("order-1", int64(750), "online", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	j := NewPostgresJournal(db)
	if err := j.Record(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestPostgresJournal_RecordDuplicate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("INSERT INTO placed_orders").
		WithArgs("order-1", int64(750), "online", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	j := NewPostgresJournal(db)
	err := j.Record(context.Background(), sampleEntry())
	if !errors.Is(err, ErrAlreadyRecorded) {
		t.Fatalf("expected ErrAlreadyRecorded, got %v", err)
	}
}

func TestPostgresJournal_RecordRequiresOrderID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)
	mock.ExpectClose()

	j := NewPostgresJournal(db)
	e := sampleEntry()
	e.OrderID = ""
	if err := j.Record(context.Background(), e); err == nil {
		t.Fatalf("expected error for missing order id")
	}
}
