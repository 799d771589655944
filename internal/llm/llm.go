package llm

import (
	"context"

	"meal-lens/internal/shared"
)

// RecognitionResponse contains the raw model text and call metadata.
type RecognitionResponse struct {
	Text string
	Meta shared.CallMeta
}

// VisionAnalyzer is an interface for a provider that can describe a meal photo.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageURL, prompt string) (RecognitionResponse, error)
	Close() error
}

// TextAnalyzer is an interface for a provider that can interpret a written
// meal description.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, description, prompt string) (RecognitionResponse, error)
}
