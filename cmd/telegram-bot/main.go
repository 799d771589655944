package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"meal-lens/internal/adapter"
	"meal-lens/internal/analysis"
	"meal-lens/internal/config"
	"meal-lens/internal/database"
	"meal-lens/internal/fooddata"
	"meal-lens/internal/llm"
	"meal-lens/internal/metrics"
	"meal-lens/internal/normalize"
	"meal-lens/internal/nutrition"
	"meal-lens/internal/storage"
	"meal-lens/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	collector := metrics.NewCollector()

	var vision llm.VisionAnalyzer
	var text llm.TextAnalyzer
	if cfg.AdapterMode == config.AdapterModeModel {
		geminiClient, err := llm.NewGeminiVisionClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer geminiClient.Close()
		vision = geminiClient
		text = llm.NewGroqTextClient(cfg)
	}

	recognizer, err := adapter.New(cfg, vision, text, collector)
	if err != nil {
		log.Fatalf("Failed to initialize adapter: %v", err)
	}

	db, err := database.NewDB(cfg.AnalysisDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	archive := analysis.NewArchive(db.SQL)

	table := nutrition.NewTable()
	var remote nutrition.Lookuper
	if cfg.FoodDataURL != "" {
		cache, err := nutrition.NewCachedLookup(fooddata.NewClient(cfg), cfg.NutritionCachePath)
		if err != nil {
			log.Fatalf("Failed to initialize nutrition cache: %v", err)
		}
		remote = cache
	}
	cascade := nutrition.NewCascade(table, remote)

	profileStore, err := storage.NewProfileStore(filepath.Join(filepath.Dir(cfg.AnalysisDBPath), "categories"))
	if err != nil {
		log.Fatalf("Failed to initialize category store: %v", err)
	}
	overrides, err := profileStore.LoadAll()
	if err != nil {
		log.Fatalf("Failed to load category overrides: %v", err)
	}
	engine := normalize.NewEngine(cfg.NormalizationMode, overrides)

	repo := analysis.NewRepository(recognizer, cascade, engine, collector, archive, metricsStore)

	bot, err := telegram.NewBot(cfg, repo, metricsStore, collector)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
