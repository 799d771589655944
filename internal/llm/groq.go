package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"meal-lens/internal/config"
	"meal-lens/internal/shared"
)

const (
	groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"
	groqModel  = "llama-3.3-70b-versatile"
)

// groqClient interprets written meal descriptions via the Groq API.
type groqClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewGroqTextClient creates a new Groq API client.
func NewGroqTextClient(cfg *config.Config) TextAnalyzer {
	return &groqClient{
		apiKey: cfg.GroqAPIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type groqRequest struct {
	Model    string        `json:"model"`
	Messages []groqMessage `json:"messages"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// AnalyzeText sends the meal description plus recognition prompt to the Groq
// model and returns the generated text.
func (c *groqClient) AnalyzeText(ctx context.Context, description, prompt string) (RecognitionResponse, error) {
	start := time.Now()

	reqBody := groqRequest{
		Model: groqModel,
		Messages: []groqMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: description},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return RecognitionResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqAPIURL, bytes.NewReader(body))
	if err != nil {
		return RecognitionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return RecognitionResponse{}, &TimeoutError{Detail: "chat completion"}
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return RecognitionResponse{}, &TimeoutError{Detail: "chat completion"}
		}
		return RecognitionResponse{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("chat completion: status %d", resp.StatusCode)
		if typed := classifyStatus(resp.StatusCode, detail); typed != nil {
			return RecognitionResponse{}, typed
		}
		raw, _ := io.ReadAll(resp.Body)
		return RecognitionResponse{}, fmt.Errorf("groq api error: status %d, body: %s", resp.StatusCode, raw)
	}

	var parsed groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RecognitionResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return RecognitionResponse{}, fmt.Errorf("no content generated")
	}

	return RecognitionResponse{
		Text: parsed.Choices[0].Message.Content,
		Meta: shared.CallMeta{
			Provider: "groq",
			Latency:  time.Since(start),
			Usage: shared.TokenUsage{
				PromptTokens:     parsed.Usage.PromptTokens,
				CompletionTokens: parsed.Usage.CompletionTokens,
				TotalTokens:      parsed.Usage.TotalTokens,
				Model:            groqModel,
			},
		},
	}, nil
}
