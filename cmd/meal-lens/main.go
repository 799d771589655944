package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"meal-lens/internal/adapter"
	"meal-lens/internal/analysis"
	"meal-lens/internal/app"
	"meal-lens/internal/config"
	"meal-lens/internal/database"
	"meal-lens/internal/fooddata"
	"meal-lens/internal/llm"
	"meal-lens/internal/metrics"
	"meal-lens/internal/normalize"
	"meal-lens/internal/nutrition"
	"meal-lens/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	collector := metrics.NewCollector()

	var vision llm.VisionAnalyzer
	var text llm.TextAnalyzer
	if cfg.AdapterMode == config.AdapterModeModel {
		geminiClient, err := llm.NewGeminiVisionClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
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
	var foodData fooddata.Client
	var cache *nutrition.CachedLookup
	var remote nutrition.Lookuper
	if cfg.FoodDataURL != "" {
		foodData = fooddata.NewClient(cfg)
		cache, err = nutrition.NewCachedLookup(foodData, cfg.NutritionCachePath)
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

	application := app.NewApp(cfg, repo, table, foodData, cache, archive)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		description := strings.TrimSpace(strings.Join(os.Args[2:], " "))
		if description == "" {
			fmt.Println("Usage: meal-lens analyze <meal description>")
			os.Exit(1)
		}
		if err := application.AnalyzeMeal(ctx, description); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
	case "sync-foods":
		if err := application.SyncFoods(ctx); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	case "report-label":
		if len(os.Args) < 3 {
			fmt.Println("Usage: meal-lens report-label <label>")
			os.Exit(1)
		}
		if err := application.ReportLabel(ctx, strings.Join(os.Args[2:], " ")); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	case "history":
		historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
		limit := historyCmd.Int("limit", 10, "How many analyses to show")
		historyCmd.Parse(os.Args[2:])

		if err := application.History(ctx, *limit); err != nil {
			log.Fatalf("History failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Removed %d old invocation records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-lens <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze <text>       Analyze a described meal")
	fmt.Println("  sync-foods           Refresh the nutrition table from the food-data service")
	fmt.Println("  report-label <text>  Submit an unknown food label for curation")
	fmt.Println("  history [-limit N]   Show recent analyses")
	fmt.Println("  metrics-cleanup      Remove old invocation records")
}
