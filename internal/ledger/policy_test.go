package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

func TestGetPolicy_CreatesDefaultOnFirstAccess(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	mock.ExpectQuery("FROM bursar.recharge_policies WHERE active").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO bursar.recharge_policies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM bursar.recharge_policies WHERE active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "monthly_amount", "recharge_day", "recharge_mode", "active", "created_at", "updated_at"}).
			AddRow("policy-1", 100, 1, models.RechargeModeFixed, true, time.Now(), time.Now()))

	p, err := l.GetPolicy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MonthlyAmount != 100 || p.RechargeDay != 1 || p.RechargeMode != models.RechargeModeFixed {
		t.Fatalf("unexpected default policy: %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePolicy_RejectsBadDay(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	day := 31
	_, err := l.UpdatePolicy(context.Background(), nil, &day, nil)
	if err == nil {
		t.Fatal("expected an error for recharge_day 31")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePolicy_RejectsUnknownMode(t *testing.T) {
	l, _, closeDB := newTestLedger(t)
	defer closeDB()

	mode := "weekly"
	_, err := l.UpdatePolicy(context.Background(), nil, nil, &mode)
	if err == nil {
		t.Fatal("expected an error for unknown recharge mode")
	}
}

func TestUpdatePolicy_AppliesPartialChange(t *testing.T) {
	l, mock, closeDB := newTestLedger(t)
	defer closeDB()

	expectActivePolicy(mock, 100, 1, models.RechargeModeFixed)

	amount := int64(150)
	mock.ExpectQuery("UPDATE bursar.recharge_policies").
		WillReturnRows(sqlmock.NewRows([]string{"id", "monthly_amount", "recharge_day", "recharge_mode", "active", "created_at", "updated_at"}).
			AddRow("policy-1", amount, 1, models.RechargeModeFixed, true, time.Now(), time.Now()))

	p, err := l.UpdatePolicy(context.Background(), &amount, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MonthlyAmount != 150 {
		t.Fatalf("expected amount 150, got %d", p.MonthlyAmount)
	}
	if p.RechargeDay != 1 {
		t.Fatalf("recharge_day should be unchanged, got %d", p.RechargeDay)
	}
}
