package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"meal-lens/internal/config"
	"meal-lens/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const geminiVisionModel = "gemini-1.5-flash"

// geminiClient is a vision client for the Google Gemini API.
type geminiClient struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	httpClient *http.Client
}

// NewGeminiVisionClient creates a new Gemini API client for photo analysis.
func NewGeminiVisionClient(ctx context.Context, cfg *config.Config) (VisionAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(geminiVisionModel)
	return &geminiClient{
		client:     client,
		model:      model,
		httpClient: &http.Client{},
	}, nil
}

// AnalyzeImage downloads the photo, sends it to the Gemini model together
// with the prompt, and returns the generated text. Deadline handling is the
// caller's: the context passed in bounds both the download and the model call.
func (c *geminiClient) AnalyzeImage(ctx context.Context, imageURL, prompt string) (RecognitionResponse, error) {
	start := time.Now()

	imageData, mimeType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return RecognitionResponse{}, c.classify(err, "image download")
	}

	resp, err := c.model.GenerateContent(ctx, genai.ImageData(mimeType, imageData), genai.Text(prompt))
	if err != nil {
		return RecognitionResponse{}, c.classify(err, "generate content")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return RecognitionResponse{}, fmt.Errorf("no content generated")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return RecognitionResponse{}, fmt.Errorf("generated content is not text")
	}

	meta := shared.CallMeta{
		Provider: "gemini",
		Latency:  time.Since(start),
		Usage:    shared.TokenUsage{Model: geminiVisionModel},
	}
	if resp.UsageMetadata != nil {
		meta.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		meta.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		meta.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return RecognitionResponse{Text: string(text), Meta: meta}, nil
}

// fetchImage retrieves the photo bytes so they can be inlined into the
// model request. The Google AI API does not accept arbitrary remote URLs.
func (c *geminiClient) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if typed := classifyStatus(resp.StatusCode, fmt.Sprintf("image fetch status %d", resp.StatusCode)); typed != nil {
			return nil, "", typed
		}
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	mimeType := "jpeg"
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		mimeType = strings.TrimPrefix(ct, "image/")
	}
	return data, mimeType, nil
}

// classify maps provider errors onto the typed Timeout/Transient taxonomy.
// Anything unclassified is returned wrapped, so callers can fail loud.
func (c *geminiClient) classify(err error, stage string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Detail: stage}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if typed := classifyStatus(gerr.Code, fmt.Sprintf("%s: status %d", stage, gerr.Code)); typed != nil {
			return typed
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Detail: stage}
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// Close closes the underlying Gemini client.
func (c *geminiClient) Close() error {
	return c.client.Close()
}
