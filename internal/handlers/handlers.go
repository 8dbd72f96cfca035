package handlers

import (
	"context"
	"database/sql"

	"github.com/assistanthub/assistant-hub-golang/internal/ai"
	"github.com/assistanthub/assistant-hub-golang/internal/credits"
)

// Generator is the slice of the AI service the handlers need. Declared
// here so tests can swap in a stub instead of a live Gemini client.
type Generator interface {
	AnalyzeError(ctx context.Context, errorLog, userContext string, tags []string) (*ai.Analysis, ai.Usage, error)
	GenerateDesign(ctx context.Context, prompt, style string) (*ai.DesignResult, ai.Usage, error)
}

// Handlers holds all dependencies for the route handlers. Everything is
// injected from main; nothing is cached at module level.
type Handlers struct {
	DB     *sql.DB
	AI     Generator
	Ledger *credits.Ledger

	// PerfectPayToken is the shared secret the payment webhook must present.
	PerfectPayToken string
}

// Credit costs per tool.
const (
	AnalyzeCost = 1.0
	DesignCost  = 2.0
)
