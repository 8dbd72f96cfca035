package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/assistanthub/assistant-hub-golang/internal/agents"
	"github.com/assistanthub/assistant-hub-golang/internal/credits"
	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// AnalyzeInput is the request body for POST /api/analyze-error.
type AnalyzeInput struct {
	ErrorLog string   `json:"error_log" binding:"required"`
	Tags     []string `json:"tags"`
	Context  string   `json:"context"`
}

// AnalyzeError is the handler for POST /api/analyze-error.
// It costs AnalyzeCost credits; callers with an insufficient balance get
// a 402 before any model call is made.
func (h *Handlers) AnalyzeError(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input AnalyzeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.Ledger.CheckSufficientCredits(c.Request.Context(), userID, AnalyzeCost); err != nil {
		respondLedgerError(c, err)
		return
	}

	analysis, usage, err := h.AI.AnalyzeError(c.Request.Context(), input.ErrorLog, input.Context, input.Tags)
	if err != nil {
		// Raw model output stays in the server log; clients get a generic
		// message.
		log.Printf("analyze-error: generation failed for user=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed, please try again"})
		return
	}

	receipt, err := h.Ledger.Deduct(
		c.Request.Context(), userID, AnalyzeCost,
		"oneshot_fixes", summarize(analysis.RootCause),
		usage.TokensInput, usage.TokensOutput,
	)
	if err != nil {
		// The balance may have drained between the pre-flight check and
		// the deduction; fail closed either way.
		respondLedgerError(c, err)
		return
	}

	recommendation := agents.RouteError(input.ErrorLog, input.Tags)

	if err := h.saveAnalysis(userID, input.ErrorLog, analysis.RootCause, analysis.Severity, analysis, usage.Total()); err != nil {
		// History is a convenience, not part of the charge. Log and move on.
		log.Printf("analyze-error: failed to save history for user=%d: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"routing":  recommendation,
		"credits":  receipt,
	})
}

func (h *Handlers) saveAnalysis(userID int64, errorLog, rootCause, severity string, analysis interface{}, tokens int) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}

	_, err = h.DB.Exec(`
		INSERT INTO analysis_history
		(user_id, error_log, root_cause, severity, response, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, errorLog, rootCause, severity, string(payload), tokens, time.Now(),
	)
	return err
}

// GetAnalysisHistory is the handler for GET /api/analyze-error/history.
func (h *Handlers) GetAnalysisHistory(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	rows, err := h.DB.Query(`
		SELECT id, user_id, error_log, root_cause, severity, tokens, created_at
		FROM analysis_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 50`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	defer rows.Close()

	history := []models.AnalysisRecord{}
	for rows.Next() {
		var rec models.AnalysisRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ErrorLog, &rec.RootCause,
			&rec.Severity, &rec.Tokens, &rec.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan history row"})
			return
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating history rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// respondLedgerError maps ledger sentinel errors to HTTP statuses.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credits"})
	case errors.Is(err, credits.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Credit check failed"})
	}
}

// summarize trims a root cause down to a short usage-log summary.
func summarize(s string) string {
	const maxLen = 140
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
