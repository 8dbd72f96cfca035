package handlers

import (
	"net/http"

	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetCreditBalance is the handler for GET /api/credits/balance.
func (h *Handlers) GetCreditBalance(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var (
		balance float64
		plan    string
	)
	err := h.DB.QueryRow(
		"SELECT credit_balance, plan FROM profiles WHERE id = ?",
		userID,
	).Scan(&balance, &plan)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": balance,
		"plan":    plan,
	})
}

// GetCreditUsage is the handler for GET /api/credits/usage.
// It returns the caller's recent usage-log rows, newest first.
func (h *Handlers) GetCreditUsage(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	rows, err := h.DB.Query(`
		SELECT id, user_id, tool_used, credits_debited, summary,
		       tokens_input, tokens_output, total_tokens, created_at
		FROM credit_usage_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 100`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage logs"})
		return
	}
	defer rows.Close()

	logs := []models.CreditUsageLog{}
	for rows.Next() {
		var entry models.CreditUsageLog
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ToolUsed, &entry.CreditsDebited,
			&entry.Summary, &entry.TokensInput, &entry.TokensOutput,
			&entry.TotalTokens, &entry.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan usage log row"})
			return
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating usage log rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": logs})
}
