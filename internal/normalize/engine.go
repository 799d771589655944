package normalize

import (
	"fmt"
	"strings"

	"meal-lens/internal/nutrition"
	"meal-lens/internal/parser"
)

// Normalization modes.
const (
	ModeEnforce = "enforce"
	ModeAdvise  = "advise"
)

// Item is a final, category-aware item record ready to be stored on an
// analysis.
type Item struct {
	Label       string  `json:"label"`
	DisplayName string  `json:"display_name"`
	QuantityG   float64 `json:"quantity_g"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Category    string  `json:"category"`
	Clamped     bool    `json:"clamped"`
}

// Advisory describes a correction that advise mode would have applied.
type Advisory struct {
	Label    string
	Category string
	Message  string
}

// Engine classifies items into food categories and applies the category's
// quantity clamps and nutrient hard-constraints.
type Engine struct {
	mode       string
	categories []CategoryProfile
}

// NewEngine creates an Engine in the given mode, with optional category
// overrides layered over the built-in table (matched by name).
func NewEngine(mode string, overrides []CategoryProfile) *Engine {
	categories := make([]CategoryProfile, len(builtinCategories))
	copy(categories, builtinCategories)
	for _, override := range overrides {
		replaced := false
		for i := range categories {
			if categories[i].Name == override.Name {
				categories[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			categories = append(categories, override)
		}
	}
	return &Engine{mode: mode, categories: categories}
}

// Classify assigns a category to a normalized label. Pure function of the
// label: the first category with a matching keyword wins.
func (e *Engine) Classify(label string) string {
	for _, category := range e.categories {
		for _, kw := range category.Keywords {
			if strings.Contains(label, kw) {
				return category.Name
			}
		}
	}
	return CategoryGeneral
}

// Normalize produces one Item per input item, order preserved. In enforce
// mode garnish clamps and hard constraints are applied; in advise mode the
// items pass through untouched and the corrections are reported instead.
// enrichments must be the cascade output for the same items, same order.
func (e *Engine) Normalize(items []parser.Item, enrichments []nutrition.Result) ([]Item, []Advisory) {
	normalized := make([]Item, 0, len(items))
	var advisories []Advisory

	for i, src := range items {
		var enriched nutrition.Result
		if i < len(enrichments) {
			enriched = enrichments[i]
		}

		categoryName := e.Classify(src.Label)
		item := Item{
			Label:       src.Label,
			DisplayName: src.DisplayName,
			QuantityG:   src.QuantityG,
			Calories:    enriched.Calories,
			Protein:     enriched.Protein,
			Carbs:       enriched.Carbs,
			Fat:         enriched.Fat,
			Fiber:       enriched.Fiber,
			Category:    categoryName,
		}

		category, found := e.category(categoryName)
		if found {
			advisories = append(advisories, e.apply(&item, category)...)
		}

		normalized = append(normalized, item)
	}

	return normalized, advisories
}

func (e *Engine) category(name string) (CategoryProfile, bool) {
	for _, c := range e.categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryProfile{}, false
}

// apply mutates item per the category rules in enforce mode, or returns
// advisories describing the rules that would fire in advise mode.
func (e *Engine) apply(item *Item, category CategoryProfile) []Advisory {
	var advisories []Advisory

	if category.IsGarnish {
		if category.MaxQuantityG != nil && item.QuantityG > *category.MaxQuantityG {
			if e.mode == ModeEnforce {
				e.rescale(item, *category.MaxQuantityG)
				item.Clamped = true
			} else {
				advisories = append(advisories, Advisory{
					Label:    item.Label,
					Category: category.Name,
					Message:  fmt.Sprintf("quantity %.1fg exceeds garnish maximum %.1fg", item.QuantityG, *category.MaxQuantityG),
				})
			}
		}
		if category.MinQuantityG != nil && item.QuantityG < *category.MinQuantityG {
			if e.mode == ModeEnforce {
				e.rescale(item, *category.MinQuantityG)
				item.Clamped = true
			} else {
				advisories = append(advisories, Advisory{
					Label:    item.Label,
					Category: category.Name,
					Message:  fmt.Sprintf("quantity %.1fg is below garnish minimum %.1fg", item.QuantityG, *category.MinQuantityG),
				})
			}
		}
	}

	for nutrient, value := range category.HardConstraints {
		if e.mode != ModeEnforce {
			advisories = append(advisories, Advisory{
				Label:    item.Label,
				Category: category.Name,
				Message:  fmt.Sprintf("nutrient %s should be fixed at %.1f", nutrient, value),
			})
			continue
		}
		switch nutrient {
		case "calories":
			item.Calories = value
		case "protein":
			item.Protein = value
		case "carbs":
			item.Carbs = value
		case "fat":
			item.Fat = value
		case "fiber":
			item.Fiber = value
		}
	}

	return advisories
}

// rescale clamps the quantity and scales the enriched nutrients with it so
// the per-gram composition stays consistent.
func (e *Engine) rescale(item *Item, quantityG float64) {
	if item.QuantityG > 0 {
		factor := quantityG / item.QuantityG
		item.Calories *= factor
		item.Protein *= factor
		item.Carbs *= factor
		item.Fat *= factor
		item.Fiber *= factor
	}
	item.QuantityG = quantityG
}
