package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetBalance_CreatesRowOnFirstReference(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO bursar.coin_balances").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id, balance, total_received, total_given").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "total_received", "total_given", "last_recharge", "created_at", "updated_at"}).
			AddRow("alice", 0, 0, 0, nil, time.Now(), time.Now()))

	b, err := l.GetBalance(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Balance != 0 {
		t.Fatalf("fresh balance should be 0, got %d", b.Balance)
	}
	if b.LastRecharge != nil {
		t.Fatal("fresh balance should have no recharge timestamp")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetBalance_RequiresUserID(t *testing.T) {
	l, _, closeDB := newTestLedger(t)
	defer closeDB()

	if _, err := l.GetBalance(context.Background(), ""); err == nil {
		t.Fatal("expected an error for empty user_id")
	}
}

func TestRankUsers_BySent(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, total_given AS total").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "total"}).
			AddRow("alice", 120).
			AddRow("bob", 45))

	entries, err := l.RankUsers(context.Background(), RankBySent, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != "alice" || entries[0].Total != 120 {
		t.Fatalf("unexpected top entry: %+v", entries[0])
	}
}

func TestRankUsers_RejectsUnknownDimension(t *testing.T) {
	l, _, closeDB := newTestLedger(t)
	defer closeDB()

	_, err := l.RankUsers(context.Background(), "karma", 10)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}
