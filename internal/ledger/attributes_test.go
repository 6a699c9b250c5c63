package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestCreateAttribute_DuplicateName(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO bursar.coin_attributes").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := l.CreateAttribute(context.Background(), "Innovation", "", 5, "", "")
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateAttribute_RejectsZeroCost(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	_, err := l.CreateAttribute(context.Background(), "Innovation", "", 0, "", "")
	if err == nil {
		t.Fatal("expected an error for cost 0")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAttribute_Succeeds(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO bursar.coin_attributes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	attr, err := l.CreateAttribute(context.Background(), "Teamwork", "helping out", 3, "handshake", "#00aa00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attr.ID == "" {
		t.Fatal("expected a generated id")
	}
	if !attr.Active {
		t.Fatal("new attributes should be active")
	}
	if attr.Cost != 3 {
		t.Fatalf("expected cost 3, got %d", attr.Cost)
	}
}

func TestUpdateAttribute_NotFound(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	cost := int64(7)
	mock.ExpectQuery("UPDATE bursar.coin_attributes").
		WillReturnError(sql.ErrNoRows)

	_, err := l.UpdateAttribute(context.Background(), "missing", nil, nil, &cost, nil, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAttribute_UnreferencedIsRemoved(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("attr-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("DELETE FROM bursar.coin_attributes").
		WithArgs("attr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := l.DeleteAttribute(context.Background(), "attr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDeleted {
		t.Fatalf("expected %s, got %s", OutcomeDeleted, outcome)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteAttribute_ReferencedIsDeactivated(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("attr-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("UPDATE bursar.coin_attributes SET active = FALSE").
		WithArgs("attr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := l.DeleteAttribute(context.Background(), "attr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDeactivated {
		t.Fatalf("expected %s, got %s", OutcomeDeactivated, outcome)
	}
}

func TestDeleteAttribute_MissingAttribute(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("DELETE FROM bursar.coin_attributes").
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := l.DeleteAttribute(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAttributes_ActiveOnlyFilters(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectQuery("FROM bursar.coin_attributes WHERE active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "cost", "active", "icon", "color", "created_at", "updated_at"}))

	attrs, err := l.ListAttributes(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 0 {
		t.Fatalf("expected empty catalog, got %d", len(attrs))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
