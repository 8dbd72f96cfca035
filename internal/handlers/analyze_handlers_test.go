package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/assistanthub/assistant-hub-golang/internal/ai"
	"github.com/assistanthub/assistant-hub-golang/internal/credits"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator satisfies the Generator interface without a live client.
type stubGenerator struct {
	analysis *ai.Analysis
	design   *ai.DesignResult
	usage    ai.Usage
	err      error
}

func (s *stubGenerator) AnalyzeError(ctx context.Context, errorLog, userContext string, tags []string) (*ai.Analysis, ai.Usage, error) {
	return s.analysis, s.usage, s.err
}

func (s *stubGenerator) GenerateDesign(ctx context.Context, prompt, style string) (*ai.DesignResult, ai.Usage, error) {
	return s.design, s.usage, s.err
}

const balanceQuery = "SELECT credit_balance FROM profiles WHERE id = ? AND status != 'deleted'"

func newAnalyzeRouter(t *testing.T, gen Generator) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &Handlers{
		DB:     db,
		AI:     gen,
		Ledger: credits.NewLedger(db),
	}

	router := gin.New()
	// Stand-in for AuthMiddleware in tests.
	router.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Set("userRole", "user")
	})
	router.POST("/api/analyze-error", h.AnalyzeError)
	return router, mock
}

func postAnalyze(t *testing.T, router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-error", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeErrorSuccess(t *testing.T) {
	gen := &stubGenerator{
		analysis: &ai.Analysis{
			RootCause:   "nil map write",
			Severity:    "high",
			Fixes:       []string{"initialize the map before use"},
			Explanation: "writing to a nil map panics",
		},
		usage: ai.Usage{TokensInput: 120, TokensOutput: 340},
	}
	router, mock := newAnalyzeRouter(t, gen)

	// Pre-flight balance check.
	mock.ExpectQuery(regexp.QuoteMeta(balanceQuery)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(5.0))
	// Deduction.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(balanceQuery + " FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(5.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET credit_balance = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_usage_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// History row.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := postAnalyze(t, router, map[string]interface{}{
		"error_log": "panic: assignment to entry in nil map",
		"tags":      []string{"backend"},
	})

	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Analysis ai.Analysis `json:"analysis"`
		Routing  struct {
			Agent string `json:"agent"`
		} `json:"routing"`
		Credits credits.Receipt `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "nil map write", out.Analysis.RootCause)
	assert.Equal(t, 1.0, out.Credits.Used)
	assert.Equal(t, 4.0, out.Credits.Remaining)
	assert.NotEmpty(t, out.Routing.Agent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeErrorInsufficientCredits(t *testing.T) {
	gen := &stubGenerator{err: errors.New("should never be called")}
	router, mock := newAnalyzeRouter(t, gen)

	mock.ExpectQuery(regexp.QuoteMeta(balanceQuery)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(0.25))

	resp := postAnalyze(t, router, map[string]interface{}{
		"error_log": "some error",
	})

	// 402 before any model call or deduction.
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeErrorGenerationFailureNoCharge(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	router, mock := newAnalyzeRouter(t, gen)

	mock.ExpectQuery(regexp.QuoteMeta(balanceQuery)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}).AddRow(5.0))

	resp := postAnalyze(t, router, map[string]interface{}{
		"error_log": "some error",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	// The generic message must not leak model internals.
	assert.NotContains(t, resp.Body.String(), "model unavailable")
	// No deduction may have run.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeErrorMissingBody(t *testing.T) {
	gen := &stubGenerator{}
	router, _ := newAnalyzeRouter(t, gen)

	resp := postAnalyze(t, router, map[string]interface{}{
		"tags": []string{"frontend"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
