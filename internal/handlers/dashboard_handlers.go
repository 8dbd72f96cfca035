package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardStats is the KPI payload for the user dashboard.
type DashboardStats struct {
	CreditBalance      float64 `json:"creditBalance"`
	Plan               string  `json:"plan"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	TotalAnalyses      int     `json:"totalAnalyses"`
	TotalDesignJobs    int     `json:"totalDesignJobs"`
	CreditsSpent       float64 `json:"creditsSpent"`
}

// GetDashboardStats is the handler for GET /api/dashboard/stats.
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	stats := DashboardStats{}

	err := h.DB.QueryRow(
		"SELECT credit_balance, plan, subscription_status FROM profiles WHERE id = ?",
		userID,
	).Scan(&stats.CreditBalance, &stats.Plan, &stats.SubscriptionStatus)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM analysis_history WHERE user_id = ?",
		userID,
	).Scan(&stats.TotalAnalyses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count analyses"})
		return
	}

	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM design_jobs WHERE user_id = ?",
		userID,
	).Scan(&stats.TotalDesignJobs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count design jobs"})
		return
	}

	// COALESCE keeps fresh accounts at 0 instead of NULL.
	err = h.DB.QueryRow(
		"SELECT COALESCE(SUM(credits_debited), 0) FROM credit_usage_logs WHERE user_id = ?",
		userID,
	).Scan(&stats.CreditsSpent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum credit usage"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
