package adapter

import (
	"context"
	"strings"

	"meal-lens/internal/parser"
)

// signalFoods maps recognizable keywords to a representative food with a
// typical serving size. Matched in order, first hit per keyword.
var signalFoods = []struct {
	keyword string
	label   string
	grams   float64
}{
	{"pizza", "pizza margherita", 300},
	{"pasta", "spaghetti al pomodoro", 180},
	{"spaghetti", "spaghetti al pomodoro", 180},
	{"riso", "riso", 150},
	{"rice", "riso", 150},
	{"pollo", "petto di pollo", 120},
	{"chicken", "petto di pollo", 120},
	{"salmone", "salmone", 150},
	{"branzino", "branzino", 150},
	{"insalata", "insalata mista", 80},
	{"salad", "insalata mista", 80},
	{"uovo", "uovo sodo", 60},
	{"mozzarella", "mozzarella", 100},
	{"mela", "mela", 180},
	{"banana", "banana", 120},
}

// Heuristic derives items from simple signal inspection of the request text
// and hint. No network call is made; unknown inputs fall back to a single
// generic plate estimate.
type Heuristic struct{}

// NewHeuristic creates the heuristic strategy.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns the strategy name used on metrics labels.
func (h *Heuristic) Name() string { return SourceHeuristic }

// Analyze inspects the request signals and builds a density-based estimate.
func (h *Heuristic) Analyze(_ context.Context, req Request) (Result, error) {
	return Result{
		Source: SourceHeuristic,
		Items:  deriveItems(req),
	}, nil
}

// deriveItems scans the request text for food keywords and estimates one
// item per distinct match, capped at the parser's item limit. It always
// yields at least one item.
func deriveItems(req Request) []parser.Item {
	text := parser.NormalizeLabel(req.Text + " " + req.Hint)

	var items []parser.Item
	seen := make(map[string]bool)
	for _, signal := range signalFoods {
		if len(items) >= parser.MaxItems {
			break
		}
		if !strings.Contains(text, signal.keyword) || seen[signal.label] {
			continue
		}
		seen[signal.label] = true
		items = append(items, estimateItem(signal.label, signal.grams))
	}

	if len(items) == 0 {
		items = append(items, estimateItem("piatto misto", 250))
	}
	return items
}

// estimateItem builds an item from a label and serving size using the same
// density resolution as parsed responses. Estimates carry a reduced
// confidence since no provider confirmed them.
func estimateItem(label string, grams float64) parser.Item {
	density, source := parser.Density(label)
	return parser.Item{
		Label:         label,
		DisplayName:   label,
		QuantityG:     grams,
		Confidence:    0.4,
		Calories:      parser.CaloriesFor(grams, density),
		DensitySource: source,
	}
}
