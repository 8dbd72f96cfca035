package models

import "time"

// AnalysisRecord is the model for the 'analysis_history' table.
type AnalysisRecord struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ErrorLog  string    `json:"errorLog" db:"error_log"`
	RootCause string    `json:"rootCause" db:"root_cause"`
	Severity  string    `json:"severity" db:"severity"`
	Response  string    `json:"-" db:"response"` // full analysis JSON
	Tokens    int       `json:"tokens" db:"tokens"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
