package routes

import (
	"github.com/assistanthub/assistant-hub-golang/internal/handlers"
	"github.com/assistanthub/assistant-hub-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the SPA to call us from any origin. The frontend
// is served from a separate host, so the API is intentionally open.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	api := router.Group("/api")
	{
		// --- Public Routes ---
		api.GET("/health", h.Health)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/plans", h.GetPlans)

		// --- Payment Webhook (shared-secret auth, not JWT) ---
		api.POST("/webhooks/perfectpay", h.PerfectPayWebhook)

		// --- Protected Routes (Login Required) ---
		auth := api.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB))
		{
			auth.GET("/profile/me", h.GetMyProfile)
			auth.PATCH("/profile/me", h.UpdateMyProfile)

			auth.POST("/analyze-error", h.AnalyzeError)
			auth.GET("/analyze-error/history", h.GetAnalysisHistory)

			auth.POST("/design-lab/create", h.CreateDesignJob)
			auth.GET("/design-lab/jobs", h.ListDesignJobs)
			auth.GET("/design-lab/jobs/:id", h.GetDesignJob)

			auth.GET("/credits/balance", h.GetCreditBalance)
			auth.GET("/credits/usage", h.GetCreditUsage)

			auth.GET("/scripts", h.GetScripts)
			auth.GET("/dashboard/stats", h.GetDashboardStats)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/users", h.ListUsers)
			admin.PATCH("/users/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.POST("/scripts", h.CreateScript)
			admin.GET("/scripts", h.ListScriptsAdmin)
			admin.PUT("/scripts/:id", h.UpdateScript)
			admin.DELETE("/scripts/:id", h.DeleteScript)

			admin.GET("/transactions", h.ListTransactions)
			admin.GET("/stats", h.GetAdminStats)
			admin.PATCH("/settings", h.UpdateSettings)
		}
	}

	return router
}
