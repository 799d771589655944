package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Adapter modes selectable via MEAL_ADAPTER_MODE.
const (
	AdapterModeStub      = "stub"
	AdapterModeHeuristic = "heuristic"
	AdapterModeModel     = "model"
)

// Normalization modes selectable via NORMALIZATION_MODE.
const (
	NormalizationEnforce = "enforce"
	NormalizationAdvise  = "advise"
)

const defaultVisionTimeout = 12 * time.Second

// Config holds the configuration for the application.
type Config struct {
	AdapterMode       string
	RealVisionEnabled bool
	GeminiAPIKey      string
	GroqAPIKey        string
	VisionTimeout     time.Duration
	NormalizationMode string

	AnalysisDBPath     string
	NutritionCachePath string

	// Food-data service (optional remote nutrition provider)
	FoodDataURL        string
	FoodDataContentKey string
	FoodDataAdminKey   string

	// Telegram Config (optional for CLI, required for Bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	adapterMode := os.Getenv("MEAL_ADAPTER_MODE")
	if adapterMode == "" {
		adapterMode = AdapterModeStub
	}
	switch adapterMode {
	case AdapterModeStub, AdapterModeHeuristic, AdapterModeModel:
	default:
		return nil, fmt.Errorf("MEAL_ADAPTER_MODE must be one of stub, heuristic, model; got %q", adapterMode)
	}

	normalizationMode := os.Getenv("NORMALIZATION_MODE")
	if normalizationMode == "" {
		normalizationMode = NormalizationEnforce
	}
	switch normalizationMode {
	case NormalizationEnforce, NormalizationAdvise:
	default:
		return nil, fmt.Errorf("NORMALIZATION_MODE must be enforce or advise; got %q", normalizationMode)
	}

	visionTimeout := defaultVisionTimeout
	if raw := os.Getenv("VISION_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("VISION_TIMEOUT_SECONDS must be a positive integer; got %q", raw)
		}
		visionTimeout = time.Duration(seconds) * time.Second
	}

	dbPath := os.Getenv("ANALYSIS_DB_PATH")
	if dbPath == "" {
		dbPath = "data/meal-lens.db"
	}

	cachePath := os.Getenv("NUTRITION_CACHE_PATH")
	if cachePath == "" {
		cachePath = "data/cache/nutrition_cache.json"
	}

	var allowedIDs []int64
	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS contains invalid id %q", part)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		fmt.Sscanf(raw, "%d", &adminID)
	}

	return &Config{
		AdapterMode:       adapterMode,
		RealVisionEnabled: os.Getenv("REAL_VISION_ENABLED") == "true",
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		VisionTimeout:     visionTimeout,
		NormalizationMode: normalizationMode,

		AnalysisDBPath:     dbPath,
		NutritionCachePath: cachePath,

		FoodDataURL:        os.Getenv("FOODDATA_API_URL"),
		FoodDataContentKey: os.Getenv("FOODDATA_CONTENT_API_KEY"),
		FoodDataAdminKey:   os.Getenv("FOODDATA_ADMIN_API_KEY"),

		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
	}, nil
}
