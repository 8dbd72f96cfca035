package models

import "time"

// PremiumScript is the model for the 'premium_scripts' table.
// Admin-curated content served to paying users.
type PremiumScript struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"`
	ScriptContent string    `json:"scriptContent" db:"script_content"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
