package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/assistanthub/assistant-hub-golang/internal/auth"
	"github.com/assistanthub/assistant-hub-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// Balance granted to a fresh account when the plans table has no row for
// the free plan yet.
const defaultFreeCredits = 5.0

// RegisterInput is the sign-up request body. We accept only these fields;
// role, plan and balance are never client-controlled.
type RegisterInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /api/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// New accounts start on the free plan with its credit allotment.
	startingCredits := defaultFreeCredits
	var planCredits float64
	err := h.DB.QueryRow("SELECT credits_included FROM plans WHERE name = 'free'").Scan(&planCredits)
	if err == nil {
		startingCredits = planCredits
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO profiles
		(full_name, email, password_hash, role, plan, credit_balance, status, subscription_status, created_at, updated_at)
		VALUES (?, ?, ?, 'user', 'free', ?, 'active', 'none', ?, ?)`,
		input.FullName, email, password.Hash, startingCredits, now, now,
	)
	if err != nil {
		// Almost always the unique index on email.
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := auth.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":            userID,
			"fullName":      input.FullName,
			"email":         email,
			"plan":          "free",
			"creditBalance": startingCredits,
		},
	})
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var (
		userID       int64
		passwordHash string
		status       string
	)
	err := h.DB.QueryRow(
		"SELECT id, password_hash, status FROM profiles WHERE email = ?",
		email,
	).Scan(&userID, &passwordHash, &status)
	if err != nil {
		// Same message for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if status == "deleted" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	password := models.Password{Hash: passwordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetMyProfile is the handler for GET /api/profile/me.
func (h *Handlers) GetMyProfile(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var (
		profile   models.Profile
		expiresAt sql.NullTime
	)
	err := h.DB.QueryRow(`
		SELECT id, full_name, email, role, plan, credit_balance, status,
		       subscription_status, subscription_expires_at, created_at, updated_at
		FROM profiles WHERE id = ?`,
		userID,
	).Scan(
		&profile.ID, &profile.FullName, &profile.Email, &profile.Role,
		&profile.Plan, &profile.CreditBalance, &profile.Status,
		&profile.SubscriptionStatus, &expiresAt,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if expiresAt.Valid {
		profile.SubscriptionExpiresAt = &expiresAt.Time
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfileInput is the PATCH body for the caller's own profile.
type UpdateProfileInput struct {
	FullName string `json:"fullName" binding:"required"`
}

// UpdateMyProfile is the handler for PATCH /api/profile/me.
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.DB.Exec(
		"UPDATE profiles SET full_name = ?, updated_at = ? WHERE id = ?",
		input.FullName, time.Now(), userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
