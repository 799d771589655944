package adapter

import (
	"context"
	"errors"
	"fmt"
	"log"

	"meal-lens/internal/config"
	"meal-lens/internal/llm"
	"meal-lens/internal/metrics"
	"meal-lens/internal/parser"
)

const recognitionPrompt = `You are a nutrition assistant. Identify every distinct food on the plate.
Respond with a single JSON object and nothing else:
{"dish_title": "<short dish name>", "items": [{"label": "<food name>", "display_name": "<presentation name>", "quantity": {"value": <number>, "unit": "g"|"piece"}, "confidence": <0..1>}]}
List at most 5 items. Use unit "piece" only for foods counted rather than weighed.`

// Model is the model-backed recognition strategy. It performs one bounded
// network call per invocation with no retry: every classified failure
// substitutes a locally-computed result instead of a second round-trip.
type Model struct {
	cfg       *config.Config
	vision    llm.VisionAnalyzer
	text      llm.TextAnalyzer
	collector *metrics.Collector
}

// NewModel creates the model-backed strategy. Either analyzer may be nil
// when the corresponding request kind is never used.
func NewModel(cfg *config.Config, vision llm.VisionAnalyzer, text llm.TextAnalyzer, collector *metrics.Collector) *Model {
	return &Model{cfg: cfg, vision: vision, text: text, collector: collector}
}

// Name returns the strategy name used on metrics labels.
func (m *Model) Name() string { return SourceModel }

// Analyze runs one recognition attempt. Classified provider failures and
// unparseable responses never surface as errors: the caller receives a
// substitute result with the fallback reason attached. Unclassified provider
// errors propagate.
func (m *Model) Analyze(ctx context.Context, req Request) (Result, error) {
	if !m.cfg.RealVisionEnabled {
		return m.fallback(req, ReasonRealDisabled), nil
	}
	if m.missingCredential(req) {
		return m.fallback(req, ReasonMissingAPIKey), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.VisionTimeout)
	defer cancel()

	resp, err := m.call(callCtx, req)
	if err != nil {
		switch {
		case llm.IsTimeout(err):
			return m.fallback(req, TimeoutReason(errorDetail(err))), nil
		case llm.IsTransient(err):
			return m.fallback(req, TransientReason(errorDetail(err))), nil
		}
		return Result{}, fmt.Errorf("recognition call failed: %w", err)
	}

	dish, err := parser.ParseDish(resp.Text)
	if err != nil {
		code := parseCode(err)
		reason := ParseReason(code)
		log.Printf("Unparseable recognition response (%s), substituting canned result", code)
		m.collector.IncFallback(reason, SourceModel)
		m.collector.IncError(code, SourceModel)
		return Result{
			Source:         SourceModel,
			Items:          StubItems(),
			RawText:        resp.Text,
			FallbackReason: reason,
		}, nil
	}

	return Result{
		Source:    SourceModel,
		DishTitle: dish.Title,
		Items:     dish.Items,
		RawText:   resp.Text,
	}, nil
}

func (m *Model) call(ctx context.Context, req Request) (llm.RecognitionResponse, error) {
	prompt := recognitionPrompt
	if req.Hint != "" {
		prompt += "\nContext from the user: " + req.Hint
	}
	if req.PhotoURL != "" {
		return m.vision.AnalyzeImage(ctx, req.PhotoURL, prompt)
	}
	return m.text.AnalyzeText(ctx, req.Text, prompt)
}

// missingCredential reports whether the provider needed for this request
// kind has no API key configured.
func (m *Model) missingCredential(req Request) bool {
	if req.PhotoURL != "" {
		return m.cfg.GeminiAPIKey == ""
	}
	return m.cfg.GroqAPIKey == ""
}

// fallback substitutes a density-based local estimate and counts the
// transition that caused it.
func (m *Model) fallback(req Request, reason string) Result {
	m.collector.IncFallback(reason, SourceModel)
	return Result{
		Source:         SourceModel,
		Items:          deriveItems(req),
		FallbackReason: reason,
	}
}

func parseCode(err error) string {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return parser.CodeInvalidJSON
}

func errorDetail(err error) string {
	var te *llm.TimeoutError
	if errors.As(err, &te) {
		return te.Detail
	}
	var tr *llm.TransientError
	if errors.As(err, &tr) {
		return tr.Detail
	}
	return err.Error()
}
