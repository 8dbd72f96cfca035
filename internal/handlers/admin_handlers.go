package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/assistanthub/assistant-hub-golang/internal/credits"
	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

//
// --- Admin: User Management ---
//

// ListUsers is the handler for GET /api/admin/users.
func (h *Handlers) ListUsers(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, full_name, email, role, plan, credit_balance, status,
		       subscription_status, subscription_expires_at, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	users := []models.Profile{}
	for rows.Next() {
		var (
			profile   models.Profile
			expiresAt sql.NullTime
		)
		if err := rows.Scan(
			&profile.ID, &profile.FullName, &profile.Email, &profile.Role,
			&profile.Plan, &profile.CreditBalance, &profile.Status,
			&profile.SubscriptionStatus, &expiresAt,
			&profile.CreatedAt, &profile.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan profile row"})
			return
		}
		if expiresAt.Valid {
			profile.SubscriptionExpiresAt = &expiresAt.Time
		}
		users = append(users, profile)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating profile rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateUserInput is the PATCH body for admin user edits. All fields are
// optional; only the ones present are applied.
type UpdateUserInput struct {
	Plan          *string  `json:"plan"`
	Role          *string  `json:"role"`
	CreditsAdjust *float64 `json:"creditsAdjust"` // signed delta applied via the ledger
}

// UpdateUser is the handler for PATCH /api/admin/users/:id.
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Plan == nil && input.Role == nil && input.CreditsAdjust == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if input.Plan != nil {
		switch *input.Plan {
		case "free", "starter", "builder", "pro", "enterprise":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan"})
			return
		}
		if _, err := h.DB.Exec(
			"UPDATE profiles SET plan = ?, updated_at = ? WHERE id = ?",
			*input.Plan, time.Now(), userID,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
			return
		}
	}

	if input.Role != nil {
		if *input.Role != "user" && *input.Role != "admin" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		if _, err := h.DB.Exec(
			"UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?",
			*input.Role, time.Now(), userID,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}
	}

	if input.CreditsAdjust != nil {
		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		if err := h.Ledger.Grant(c.Request.Context(), id, *input.CreditsAdjust); err != nil {
			if errors.Is(err, credits.ErrProfileNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust credits"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

// DeleteUser is the handler for DELETE /api/admin/users/:id.
// Accounts are soft-deleted: the row stays for the usage-log and
// transaction history, but the user can no longer authenticate.
func (h *Handlers) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	result, err := h.DB.Exec(
		"UPDATE profiles SET status = 'deleted', updated_at = ? WHERE id = ? AND status != 'deleted'",
		time.Now(), userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

//
// --- Admin: Premium Scripts CRUD ---
//

// ScriptInput is the create/update body for premium scripts.
type ScriptInput struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Category      string `json:"category" binding:"required"`
	ScriptContent string `json:"scriptContent" binding:"required"`
	IsActive      *bool  `json:"isActive"`
}

// CreateScript is the handler for POST /api/admin/scripts.
func (h *Handlers) CreateScript(c *gin.Context) {
	var input ScriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO premium_scripts
		(title, slug, description, category, script_content, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Title, slug.Make(input.Title), input.Description, input.Category,
		input.ScriptContent, isActive, now, now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create script"})
		return
	}

	scriptID, _ := result.LastInsertId()
	c.JSON(http.StatusCreated, gin.H{
		"message": "Script created",
		"id":      scriptID,
	})
}

// ListScriptsAdmin is the handler for GET /api/admin/scripts.
// Unlike the public listing it includes inactive scripts.
func (h *Handlers) ListScriptsAdmin(c *gin.Context) {
	scripts, err := h.queryScripts(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scripts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scripts": scripts})
}

// UpdateScript is the handler for PUT /api/admin/scripts/:id.
func (h *Handlers) UpdateScript(c *gin.Context) {
	scriptID := c.Param("id")

	var input ScriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	result, err := h.DB.Exec(`
		UPDATE premium_scripts
		SET title = ?, slug = ?, description = ?, category = ?,
		    script_content = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		input.Title, slug.Make(input.Title), input.Description, input.Category,
		input.ScriptContent, isActive, time.Now(), scriptID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update script"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Script not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Script updated"})
}

// DeleteScript is the handler for DELETE /api/admin/scripts/:id.
func (h *Handlers) DeleteScript(c *gin.Context) {
	scriptID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM premium_scripts WHERE id = ?", scriptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete script"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Script not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Script deleted"})
}

//
// --- Admin: Payment Transactions ---
//

// ListTransactions is the handler for GET /api/admin/transactions.
// It returns recent webhook payment events for auditing.
func (h *Handlers) ListTransactions(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, perfectpay_code, user_id, amount, status, payment_method, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT 100`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.PerfectPayCode, &txn.UserID, &txn.Amount,
			&txn.Status, &txn.PaymentMethod, &txn.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan transaction row"})
			return
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating transaction rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

//
// --- Admin: Platform Stats & Settings ---
//

// AdminStats is the KPI payload for the admin dashboard.
type AdminStats struct {
	TotalUsers    int     `json:"totalUsers"`
	ActiveSubs    int     `json:"activeSubscriptions"`
	CreditsSpent  float64 `json:"creditsSpent"`
	TotalAnalyses int     `json:"totalAnalyses"`
	TotalDesigns  int     `json:"totalDesigns"`
}

// GetAdminStats is the handler for GET /api/admin/stats.
func (h *Handlers) GetAdminStats(c *gin.Context) {
	stats := AdminStats{}

	err := h.DB.QueryRow("SELECT COUNT(*) FROM profiles WHERE status != 'deleted'").Scan(&stats.TotalUsers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM profiles WHERE subscription_status = 'active'").Scan(&stats.ActiveSubs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count subscriptions"})
		return
	}

	err = h.DB.QueryRow("SELECT COALESCE(SUM(credits_debited), 0) FROM credit_usage_logs").Scan(&stats.CreditsSpent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum credit usage"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM analysis_history").Scan(&stats.TotalAnalyses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count analyses"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM design_jobs").Scan(&stats.TotalDesigns)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count design jobs"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SettingsInput is the PATCH body for platform settings.
type SettingsInput struct {
	MaintenanceMode *bool `json:"maintenanceMode"`
}

// UpdateSettings is the handler for PATCH /api/admin/settings.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var input SettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.MaintenanceMode == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings to update"})
		return
	}

	value := "false"
	if *input.MaintenanceMode {
		value = "true"
	}

	_, err := h.DB.Exec(`
		INSERT INTO settings (setting_key, setting_value)
		VALUES ('maintenance_mode', ?)
		ON DUPLICATE KEY UPDATE setting_value = ?`,
		value, value,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "maintenanceMode": *input.MaintenanceMode})
}
