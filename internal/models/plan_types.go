package models

// Plan is the model for the 'plans' table.
type Plan struct {
	ID              int64   `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"` // free | starter | builder | pro | enterprise
	Price           float64 `json:"price" db:"price"`
	DurationDays    int     `json:"durationDays" db:"duration_days"`
	CreditsIncluded float64 `json:"creditsIncluded" db:"credits_included"`
	IsPublic        bool    `json:"isPublic" db:"is_public"`
}
