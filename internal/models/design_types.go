package models

import "time"

// DesignJob is the model for the 'design_jobs' table.
// One row per Design Lab generation.
type DesignJob struct {
	JobID       string    `json:"jobId" db:"job_id"` // uuid
	UserID      int64     `json:"userId" db:"user_id"`
	Prompt      string    `json:"prompt" db:"prompt"`
	Style       string    `json:"style,omitempty" db:"style"`
	HTML        string    `json:"html" db:"html"`
	CSS         string    `json:"css" db:"css"`
	Tokens      int       `json:"tokens" db:"tokens"`
	CreditsUsed float64   `json:"creditsUsed" db:"credits_used"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
