package adapter

import (
	"context"
	"fmt"

	"meal-lens/internal/config"
	"meal-lens/internal/llm"
	"meal-lens/internal/metrics"
	"meal-lens/internal/parser"
)

// Source names reported on results and used as metrics labels.
const (
	SourceStub      = "stub"
	SourceHeuristic = "heuristic"
	SourceModel     = "model"
)

// Fallback reasons for the model-backed strategy. Timeout, transient and
// parse reasons carry a detail suffix built by the helpers below.
const (
	ReasonRealDisabled  = "REAL_DISABLED"
	ReasonMissingAPIKey = "MISSING_API_KEY"
)

// TimeoutReason tags a fallback caused by a provider deadline overrun.
func TimeoutReason(detail string) string { return "TIMEOUT:" + detail }

// TransientReason tags a fallback caused by a retryable provider fault.
func TransientReason(detail string) string { return "TRANSIENT:" + detail }

// ParseReason tags a fallback caused by an unparseable provider response.
func ParseReason(code string) string { return "PARSE:" + code }

// Request identifies one recognition job. A photo request sets PhotoID and
// PhotoURL; a text request sets Text. Hint optionally carries extra user
// context for the prompt.
type Request struct {
	UserID   string
	PhotoID  string
	PhotoURL string
	Text     string
	Hint     string
}

// Result is the outcome of one adapter invocation. FallbackReason is empty
// when the items came straight from the selected strategy; otherwise it
// names the transition that substituted a locally-computed result.
type Result struct {
	Source         string
	DishTitle      string
	Items          []parser.Item
	RawText        string
	FallbackReason string
}

// Adapter produces item records for a recognition request.
type Adapter interface {
	Name() string
	Analyze(ctx context.Context, req Request) (Result, error)
}

// New resolves the configured recognition strategy. The choice is made once
// here; callers never re-dispatch per request.
func New(cfg *config.Config, vision llm.VisionAnalyzer, text llm.TextAnalyzer, collector *metrics.Collector) (Adapter, error) {
	switch cfg.AdapterMode {
	case config.AdapterModeStub:
		return NewStub(), nil
	case config.AdapterModeHeuristic:
		return NewHeuristic(), nil
	case config.AdapterModeModel:
		return NewModel(cfg, vision, text, collector), nil
	}
	return nil, fmt.Errorf("unknown adapter mode %q", cfg.AdapterMode)
}
