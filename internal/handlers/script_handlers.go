package handlers

import (
	"net/http"

	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetScripts is the handler for GET /api/scripts.
// It returns only active scripts; the admin listing includes the rest.
func (h *Handlers) GetScripts(c *gin.Context) {
	scripts, err := h.queryScripts(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scripts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scripts": scripts})
}

func (h *Handlers) queryScripts(activeOnly bool) ([]models.PremiumScript, error) {
	query := `
		SELECT id, title, slug, description, category, script_content, is_active, created_at, updated_at
		FROM premium_scripts`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scripts := []models.PremiumScript{}
	for rows.Next() {
		var script models.PremiumScript
		if err := rows.Scan(
			&script.ID, &script.Title, &script.Slug, &script.Description,
			&script.Category, &script.ScriptContent, &script.IsActive,
			&script.CreatedAt, &script.UpdatedAt,
		); err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

// GetPlans is the handler for GET /api/plans (public).
func (h *Handlers) GetPlans(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, name, price, duration_days, credits_included, is_public
		FROM plans
		WHERE is_public = TRUE
		ORDER BY price ASC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		var plan models.Plan
		if err := rows.Scan(
			&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays,
			&plan.CreditsIncluded, &plan.IsPublic,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan plan row"})
			return
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating plan rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Health is the handler for GET /api/health.
func (h *Handlers) Health(c *gin.Context) {
	if err := h.DB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
