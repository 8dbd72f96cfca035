package credits

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectForUpdate = "SELECT credit_balance FROM profiles WHERE id = ? AND status != 'deleted' FOR UPDATE"
	selectBalance   = "SELECT credit_balance FROM profiles WHERE id = ? AND status != 'deleted'"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLedger(db), mock
}

func TestDeductSufficientBalance(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(10.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	receipt, err := ledger.Deduct(context.Background(), 1, 1.5, "oneshot_fixes", "analysis", 120, 400)
	if err != nil {
		t.Fatalf("Deduct error = %v", err)
	}
	if receipt.Used != 1.5 {
		t.Fatalf("receipt.Used = %f, want 1.5", receipt.Used)
	}
	if receipt.Remaining != 8.5 {
		t.Fatalf("receipt.Remaining = %f, want 8.5", receipt.Remaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeductInsufficientBalanceFailsClosed(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(0.5))
	mock.ExpectRollback()

	_, err := ledger.Deduct(context.Background(), 1, 2.0, "design_job", "mockup", 0, 0)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("Deduct error = %v, want ErrInsufficientCredits", err)
	}
	// No UPDATE and no usage log may run when the balance is short.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeductMissingProfile(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}))
	mock.ExpectRollback()

	_, err := ledger.Deduct(context.Background(), 99, 1.0, "oneshot_fixes", "analysis", 0, 0)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Deduct error = %v, want ErrProfileNotFound", err)
	}
}

func TestDeductBalanceUpdateFailureReturnsError(t *testing.T) {
	// The source system swallowed this failure and returned success anyway.
	// The ledger is fail-closed: the caller sees the error and no receipt.
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(10.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = ?")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := ledger.Deduct(context.Background(), 1, 1.0, "oneshot_fixes", "analysis", 0, 0)
	if err == nil {
		t.Fatalf("Deduct should fail when the balance update fails")
	}
}

func TestDeductQueuesUsageLogOnInsertFailure(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(5.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnError(errors.New("table lock timeout"))

	receipt, err := ledger.Deduct(context.Background(), 1, 1.0, "oneshot_fixes", "analysis", 10, 20)
	if err != nil {
		t.Fatalf("Deduct error = %v; a failed log write must not fail a committed charge", err)
	}
	if receipt.Remaining != 4.0 {
		t.Fatalf("receipt.Remaining = %f, want 4.0", receipt.Remaining)
	}
	if got := ledger.PendingLogs(); got != 1 {
		t.Fatalf("PendingLogs = %d, want 1", got)
	}

	// The retry flusher writes the queued row once the DB recovers.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if flushed := ledger.FlushPendingLogs(context.Background()); flushed != 1 {
		t.Fatalf("FlushPendingLogs = %d, want 1", flushed)
	}
	if got := ledger.PendingLogs(); got != 0 {
		t.Fatalf("PendingLogs after flush = %d, want 0", got)
	}
}

func TestFlushPendingLogsKeepsFailedRows(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(3.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnError(errors.New("down"))

	if _, err := ledger.Deduct(context.Background(), 2, 1.0, "design_job", "mockup", 0, 0); err != nil {
		t.Fatalf("Deduct error = %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnError(errors.New("still down"))
	if flushed := ledger.FlushPendingLogs(context.Background()); flushed != 0 {
		t.Fatalf("FlushPendingLogs = %d, want 0", flushed)
	}
	if got := ledger.PendingLogs(); got != 1 {
		t.Fatalf("PendingLogs = %d, want 1 (row must survive a failed retry)", got)
	}
}

func TestCheckSufficientCredits(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectBalance)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(2.0))

	balance, err := ledger.CheckSufficientCredits(context.Background(), 1, 1.0)
	if err != nil {
		t.Fatalf("CheckSufficientCredits error = %v", err)
	}
	if balance != 2.0 {
		t.Fatalf("balance = %f, want 2.0", balance)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectBalance)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(0.25))

	if _, err := ledger.CheckSufficientCredits(context.Background(), 1, 1.0); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("CheckSufficientCredits error = %v, want ErrInsufficientCredits", err)
	}
}

func TestGrant(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = credit_balance + ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := ledger.Grant(context.Background(), 1, 100.0); err != nil {
		t.Fatalf("Grant error = %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = credit_balance + ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := ledger.Grant(context.Background(), 404, 100.0); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Grant error = %v, want ErrProfileNotFound", err)
	}
}
