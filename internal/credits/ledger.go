package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientCredits is returned when a deduction would push a user's
// balance below zero. Handlers map it to HTTP 402.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrProfileNotFound is returned when the user has no profiles row.
var ErrProfileNotFound = errors.New("profile not found")

// Receipt reports what a deduction actually charged.
type Receipt struct {
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// Ledger tracks and decrements a user's AI-usage credit balance.
// All balance mutations go through a transaction that locks the profile
// row, so concurrent deductions for the same user cannot lose updates.
type Ledger struct {
	DB    *sql.DB
	queue *logQueue
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		DB:    db,
		queue: newLogQueue(),
	}
}

// Balance reads the current credit balance for a user.
func (l *Ledger) Balance(ctx context.Context, userID int64) (float64, error) {
	var balance float64
	err := l.DB.QueryRowContext(ctx,
		"SELECT credit_balance FROM profiles WHERE id = ? AND status != 'deleted'",
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProfileNotFound
		}
		return 0, err
	}
	return balance, nil
}

// CheckSufficientCredits is the pre-flight gate before an AI call.
// It returns the current balance, or ErrInsufficientCredits when the
// user cannot afford the given amount.
func (l *Ledger) CheckSufficientCredits(ctx context.Context, userID int64, amount float64) (float64, error) {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return balance, ErrInsufficientCredits
	}
	return balance, nil
}

// Deduct charges a user for one AI invocation and records a usage-log row.
//
// The balance update runs in a transaction with the profile row locked
// (SELECT ... FOR UPDATE), so the read-check-write cannot race. The
// deduction is fail-closed: any failure before commit returns an error and
// leaves the balance untouched. The usage-log insert happens after the
// commit; if it fails, the row is queued and retried by the background
// flusher rather than dropped, so the log cannot block a charge that
// already went through.
func (l *Ledger) Deduct(ctx context.Context, userID int64, amount float64, tool, summary string, tokensIn, tokensOut int) (Receipt, error) {
	if amount < 0 {
		return Receipt{}, fmt.Errorf("deduct amount must be non-negative, got %f", amount)
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("begin deduction: %w", err)
	}
	defer tx.Rollback()

	var balance float64
	err = tx.QueryRowContext(ctx,
		"SELECT credit_balance FROM profiles WHERE id = ? AND status != 'deleted' FOR UPDATE",
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, ErrProfileNotFound
		}
		return Receipt{}, fmt.Errorf("lock profile for deduction: %w", err)
	}

	if balance < amount {
		return Receipt{Used: 0, Remaining: balance}, ErrInsufficientCredits
	}

	remaining := balance - amount
	_, err = tx.ExecContext(ctx,
		"UPDATE profiles SET credit_balance = ?, updated_at = ? WHERE id = ?",
		remaining, time.Now(), userID,
	)
	if err != nil {
		return Receipt{}, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("commit deduction: %w", err)
	}

	entry := usageEntry{
		UserID:         userID,
		ToolUsed:       tool,
		CreditsDebited: amount,
		Summary:        summary,
		TokensInput:    tokensIn,
		TokensOutput:   tokensOut,
		CreatedAt:      time.Now(),
	}
	if err := l.insertUsageLog(ctx, entry); err != nil {
		// The charge is committed; keep the log row for the retry worker.
		l.queue.push(entry)
	}

	return Receipt{Used: amount, Remaining: remaining}, nil
}

// Grant atomically adds credits to a user's balance. Used by the payment
// webhook and by admin balance adjustments.
func (l *Ledger) Grant(ctx context.Context, userID int64, amount float64) error {
	res, err := l.DB.ExecContext(ctx,
		"UPDATE profiles SET credit_balance = credit_balance + ?, updated_at = ? WHERE id = ?",
		amount, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (l *Ledger) insertUsageLog(ctx context.Context, e usageEntry) error {
	_, err := l.DB.ExecContext(ctx, `
		INSERT INTO credit_usage_logs
		(user_id, tool_used, credits_debited, summary, tokens_input, tokens_output, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ToolUsed, e.CreditsDebited, e.Summary,
		e.TokensInput, e.TokensOutput, e.TokensInput+e.TokensOutput, e.CreatedAt,
	)
	return err
}
