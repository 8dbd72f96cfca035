package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/assistanthub/assistant-hub-golang/internal/ai"
	"github.com/assistanthub/assistant-hub-golang/internal/credits"
	"github.com/assistanthub/assistant-hub-golang/internal/database"
	"github.com/assistanthub/assistant-hub-golang/internal/handlers"
	"github.com/assistanthub/assistant-hub-golang/internal/routes"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("CRITICAL ERROR: JWT_SECRET environment variable is not set.")
	}

	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Fatal("CRITICAL ERROR: GEMINI_API_KEY environment variable is not set.")
	}

	aiService, err := ai.NewAIService(context.Background(), geminiKey)
	if err != nil {
		log.Fatalf("Failed to initialize AI Service: %v", err)
	}
	defer aiService.Client.Close()
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		aiService.ModelName = model
	}

	perfectPayToken := os.Getenv("PERFECTPAY_TOKEN")
	if perfectPayToken == "" {
		log.Fatal("CRITICAL ERROR: PERFECTPAY_TOKEN environment variable is not set.")
	}

	ledger := credits.NewLedger(db)

	app := &handlers.Handlers{
		DB:              db,
		AI:              aiService,
		Ledger:          ledger,
		PerfectPayToken: perfectPayToken,
	}

	// Background worker: re-attempts usage-log rows whose insert failed
	// after the balance was already committed.
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		log.Println("Background worker started: retrying failed usage-log writes...")

		for range ticker.C {
			ledger.FlushPendingLogs(context.Background())
		}
	}()

	router := routes.SetupRouter(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Assistant Hub API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
