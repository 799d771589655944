package app

import (
	"context"
	"fmt"
	"log"

	"meal-lens/internal/analysis"
	"meal-lens/internal/config"
	"meal-lens/internal/fooddata"
	"meal-lens/internal/nutrition"
	"meal-lens/internal/parser"
)

// cliUserID is the synthetic user all command-line analyses run under.
const cliUserID = "cli"

// App holds the application's dependencies for the command-line surface.
type App struct {
	cfg      *config.Config
	repo     *analysis.Repository
	table    *nutrition.Table
	foodData fooddata.Client         // may be nil when the service is not configured
	cache    *nutrition.CachedLookup // may be nil
	archive  *analysis.Archive       // may be nil
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	repo *analysis.Repository,
	table *nutrition.Table,
	foodData fooddata.Client,
	cache *nutrition.CachedLookup,
	archive *analysis.Archive,
) *App {
	return &App{
		cfg:      cfg,
		repo:     repo,
		table:    table,
		foodData: foodData,
		cache:    cache,
		archive:  archive,
	}
}

// AnalyzeMeal runs one analysis for a described meal and prints the outcome.
func (a *App) AnalyzeMeal(ctx context.Context, description string) error {
	fmt.Printf("Analyzing: \"%s\"...\n", description)

	record, err := a.repo.CreateOrGet(ctx, analysis.Request{
		UserID: cliUserID,
		Text:   description,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printRecord(record)
	return nil
}

// SyncFoods refreshes the local nutrition table from the food-data service
// and persists the lookup cache.
func (a *App) SyncFoods(ctx context.Context) error {
	if a.foodData == nil {
		return fmt.Errorf("food-data service is not configured (set FOODDATA_API_URL)")
	}

	fmt.Println("Fetching composition table...")
	entries, err := a.foodData.FetchTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch composition table: %w", err)
	}

	applied := a.table.Merge(entries)
	fmt.Printf("Merged %d foods, table now knows %d labels.\n", applied, a.table.Len())

	if a.cache != nil {
		if err := a.cache.SaveCache(); err != nil {
			log.Printf("Warning: failed to persist nutrition cache: %v", err)
		}
	}
	return nil
}

// ReportLabel submits an unresolved label to the food-data curators.
func (a *App) ReportLabel(ctx context.Context, label string) error {
	if a.foodData == nil {
		return fmt.Errorf("food-data service is not configured (set FOODDATA_API_URL)")
	}

	normalized := parser.NormalizeLabel(label)
	if normalized == "" {
		return fmt.Errorf("label %q is empty after normalization", label)
	}
	if _, ok := a.table.Lookup(normalized); ok {
		return fmt.Errorf("label %q is already in the nutrition table", normalized)
	}

	if err := a.foodData.SubmitLabel(ctx, normalized); err != nil {
		return fmt.Errorf("failed to submit label: %w", err)
	}
	fmt.Printf("Submitted %q for curation.\n", normalized)
	return nil
}

// History prints the newest archived analyses for the CLI user.
func (a *App) History(ctx context.Context, limit int) error {
	if a.archive == nil {
		return fmt.Errorf("no archive configured")
	}

	records, err := a.archive.ListRecent(ctx, cliUserID, limit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No analyses yet.")
		return nil
	}

	for _, rec := range records {
		title := rec.DishTitle
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %d items, %.0f kcal\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), title, len(rec.Items), rec.TotalCalories())
	}
	return nil
}

func printRecord(rec *analysis.AnalysisRecord) {
	fmt.Println("\n=== MEAL ANALYSIS ===")
	if rec.DishTitle != "" {
		fmt.Printf("Dish: %s\n", rec.DishTitle)
	}
	for _, item := range rec.Items {
		marker := ""
		if item.Clamped {
			marker = " (adjusted)"
		}
		fmt.Printf("% -24s %6.0f g %7.0f kcal  [%s]%s\n",
			item.DisplayName, item.QuantityG, item.Calories, item.Category, marker)
	}
	fmt.Printf("\nTotal: %.0f kcal  (source: %s)\n", rec.TotalCalories(), rec.Source)
	if rec.FallbackReason != "" {
		fmt.Printf("Note: estimated locally (%s)\n", rec.FallbackReason)
	}
	for _, adv := range rec.Advisories {
		fmt.Printf("Advisory: %s: %s\n", adv.Label, adv.Message)
	}
}
