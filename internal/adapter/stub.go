package adapter

import (
	"context"

	"meal-lens/internal/parser"
)

// Stub is the deterministic recognition strategy: it always returns the same
// two-item plate. It is both the default strategy and the substitute result
// when a model response cannot be parsed.
type Stub struct{}

// NewStub creates the stub strategy.
func NewStub() *Stub {
	return &Stub{}
}

// Name returns the strategy name used on metrics labels.
func (s *Stub) Name() string { return SourceStub }

// Analyze returns the canned two-item result.
func (s *Stub) Analyze(_ context.Context, _ Request) (Result, error) {
	return Result{
		Source:    SourceStub,
		DishTitle: "Piatto misto",
		Items:     StubItems(),
	}, nil
}

// StubItems builds the fixed two-item canned result. Calories follow the
// same density resolution as parsed items so downstream stages cannot tell
// the difference.
func StubItems() []parser.Item {
	items := []parser.Item{
		{Label: "petto di pollo", DisplayName: "Petto di pollo", QuantityG: 120, Confidence: 0.9},
		{Label: "insalata mista", DisplayName: "Insalata mista", QuantityG: 80, Confidence: 0.8},
	}
	for i := range items {
		density, source := parser.Density(items[i].Label)
		items[i].Calories = parser.CaloriesFor(items[i].QuantityG, density)
		items[i].DensitySource = source
	}
	return items
}
