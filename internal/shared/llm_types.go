package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a recognition call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// CallMeta holds operational metadata for a single recognition-provider call.
type CallMeta struct {
	Provider string
	Usage    TokenUsage
	Latency  time.Duration
}
