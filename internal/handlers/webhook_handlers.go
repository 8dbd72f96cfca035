package handlers

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// PerfectPay sale status enums we act on.
const (
	saleStatusApproved = 2
	saleStatusCanceled = 3
	saleStatusRefused  = 6
)

// Credits granted per approved sale, and the subscription extension.
const (
	purchaseCredits       = 100.0
	subscriptionExtension = 30 * 24 * time.Hour
)

// perfectPayPayload is the webhook body PerfectPay posts to us.
type perfectPayPayload struct {
	Token    string `json:"token"`
	Code     string `json:"code"`
	Customer struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"customer"`
	SaleAmount        float64 `json:"sale_amount"`
	SaleStatusEnum    int     `json:"sale_status_enum"`
	PaymentMethodEnum int     `json:"payment_method_enum"`
}

// PerfectPayWebhook is the handler for POST /api/webhooks/perfectpay.
//
// Deliveries are deduplicated on the sale code: transactions.perfectpay_code
// is unique and checked inside the same transaction that credits the user,
// so a replayed webhook can never double-credit.
func (h *Handlers) PerfectPayWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var payload perfectPayPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Shared-secret check before any database work.
	if h.PerfectPayToken == "" ||
		subtle.ConstantTimeCompare([]byte(payload.Token), []byte(h.PerfectPayToken)) != 1 {
		log.Printf("perfectpay: rejected delivery with bad token (code=%s)", payload.Code)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if payload.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sale code"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Customer.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer email"})
		return
	}

	var userID int64
	err = h.DB.QueryRow("SELECT id FROM profiles WHERE email = ?", email).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("perfectpay: no profile for %s (code=%s)", email, payload.Code)
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	status := transactionStatus(payload.SaleStatusEnum)

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		return
	}
	defer tx.Rollback()

	// Dedupe on the sale code inside the transaction.
	var existingID int64
	err = tx.QueryRow(
		"SELECT id FROM transactions WHERE perfectpay_code = ? FOR UPDATE",
		payload.Code,
	).Scan(&existingID)
	if err == nil {
		log.Printf("perfectpay: duplicate delivery for code=%s, ignoring", payload.Code)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		return
	}

	_, err = tx.Exec(`
		INSERT INTO transactions
		(perfectpay_code, user_id, amount, status, payment_method, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payload.Code, userID, payload.SaleAmount, status,
		paymentMethodName(payload.PaymentMethodEnum), string(body), time.Now(),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	switch payload.SaleStatusEnum {
	case saleStatusApproved:
		expiresAt := time.Now().Add(subscriptionExtension)
		_, err = tx.Exec(`
			UPDATE profiles
			SET credit_balance = credit_balance + ?,
			    subscription_status = 'active',
			    subscription_expires_at = ?,
			    updated_at = ?
			WHERE id = ?`,
			purchaseCredits, expiresAt, time.Now(), userID,
		)
	case saleStatusCanceled, saleStatusRefused:
		_, err = tx.Exec(`
			UPDATE profiles
			SET subscription_status = 'canceled', updated_at = ?
			WHERE id = ?`,
			time.Now(), userID,
		)
	default:
		// Recorded for audit, no profile mutation.
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		return
	}

	log.Printf("perfectpay: processed code=%s user=%d status=%s", payload.Code, userID, status)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func transactionStatus(enum int) string {
	switch enum {
	case saleStatusApproved:
		return "approved"
	case saleStatusCanceled, saleStatusRefused:
		return "canceled"
	default:
		return "ignored"
	}
}

func paymentMethodName(enum int) string {
	switch enum {
	case 1:
		return "credit_card"
	case 2:
		return "billet"
	case 4:
		return "pix"
	default:
		return "other"
	}
}
