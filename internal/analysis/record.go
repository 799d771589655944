package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"meal-lens/internal/normalize"
)

// Terminal and transitional statuses of an analysis record.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// AnalysisRecord is the immutable outcome of one meal analysis. Repeated
// requests carrying the same idempotency key always resolve to the same
// record.
type AnalysisRecord struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	Status         string               `json:"status"`
	Source         string               `json:"source"`
	DishTitle      string               `json:"dish_title"`
	Items          []normalize.Item     `json:"items"`
	Advisories     []normalize.Advisory `json:"advisories,omitempty"`
	FallbackReason string               `json:"fallback_reason,omitempty"`
	IdempotencyKey string               `json:"idempotency_key"`
	CreatedAt      time.Time            `json:"created_at"`
}

// TotalCalories sums the calories over all items.
func (r *AnalysisRecord) TotalCalories() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.Calories
	}
	return total
}

// DeriveKey builds the automatic idempotency key for a request that did not
// supply one. Identical inputs always yield the identical key; changing any
// of the three fields changes it.
func DeriveKey(userID, photoID, photoURL string) string {
	sum := sha256.Sum256([]byte(userID + "|" + photoID + "|" + photoURL))
	return "auto-" + hex.EncodeToString(sum[:])[:16]
}
