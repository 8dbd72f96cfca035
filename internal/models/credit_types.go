package models

import "time"

// CreditUsageLog is the model for the 'credit_usage_logs' table.
// One row per successful AI invocation, append-only.
type CreditUsageLog struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"userId" db:"user_id"`
	ToolUsed       string    `json:"toolUsed" db:"tool_used"` // oneshot_fixes | design_job
	CreditsDebited float64   `json:"creditsDebited" db:"credits_debited"`
	Summary        string    `json:"summary" db:"summary"`
	TokensInput    int       `json:"tokensInput" db:"tokens_input"`
	TokensOutput   int       `json:"tokensOutput" db:"tokens_output"`
	TotalTokens    int       `json:"totalTokens" db:"total_tokens"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
