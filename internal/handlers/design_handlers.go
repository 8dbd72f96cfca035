package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DesignInput is the request body for POST /api/design-lab/create.
type DesignInput struct {
	Prompt string `json:"prompt" binding:"required"`
	Style  string `json:"style"`
}

// CreateDesignJob is the handler for POST /api/design-lab/create.
// It costs DesignCost credits.
func (h *Handlers) CreateDesignJob(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input DesignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.Ledger.CheckSufficientCredits(c.Request.Context(), userID, DesignCost); err != nil {
		respondLedgerError(c, err)
		return
	}

	result, usage, err := h.AI.GenerateDesign(c.Request.Context(), input.Prompt, input.Style)
	if err != nil {
		log.Printf("design-lab: generation failed for user=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Design generation failed, please try again"})
		return
	}

	receipt, err := h.Ledger.Deduct(
		c.Request.Context(), userID, DesignCost,
		"design_job", summarize(input.Prompt),
		usage.TokensInput, usage.TokensOutput,
	)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	job := models.DesignJob{
		JobID:       uuid.NewString(),
		UserID:      userID,
		Prompt:      input.Prompt,
		Style:       input.Style,
		HTML:        result.HTML,
		CSS:         result.CSS,
		Tokens:      usage.Total(),
		CreditsUsed: DesignCost,
		CreatedAt:   time.Now(),
	}

	_, err = h.DB.Exec(`
		INSERT INTO design_jobs
		(job_id, user_id, prompt, style, html, css, tokens, credits_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.UserID, job.Prompt, job.Style, job.HTML, job.CSS,
		job.Tokens, job.CreditsUsed, job.CreatedAt,
	)
	if err != nil {
		// The user was charged and got their mockup; losing the stored copy
		// is logged, not surfaced.
		log.Printf("design-lab: failed to save job %s for user=%d: %v", job.JobID, userID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"job":     job,
		"notes":   result.Notes,
		"credits": receipt,
	})
}

// ListDesignJobs is the handler for GET /api/design-lab/jobs.
func (h *Handlers) ListDesignJobs(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	rows, err := h.DB.Query(`
		SELECT job_id, user_id, prompt, style, tokens, credits_used, created_at
		FROM design_jobs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 50`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load design jobs"})
		return
	}
	defer rows.Close()

	// HTML/CSS bodies are omitted from the listing; fetch a single job to
	// get the full mockup.
	jobs := []models.DesignJob{}
	for rows.Next() {
		var job models.DesignJob
		if err := rows.Scan(
			&job.JobID, &job.UserID, &job.Prompt, &job.Style,
			&job.Tokens, &job.CreditsUsed, &job.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan design job row"})
			return
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating design job rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetDesignJob is the handler for GET /api/design-lab/jobs/:id.
// Jobs are private: requesting another user's job returns 404.
func (h *Handlers) GetDesignJob(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	jobID := c.Param("id")

	var job models.DesignJob
	err := h.DB.QueryRow(`
		SELECT job_id, user_id, prompt, style, html, css, tokens, credits_used, created_at
		FROM design_jobs
		WHERE job_id = ? AND user_id = ?`,
		jobID, userID,
	).Scan(
		&job.JobID, &job.UserID, &job.Prompt, &job.Style, &job.HTML,
		&job.CSS, &job.Tokens, &job.CreditsUsed, &job.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Design job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load design job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}
