package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// MaxItems caps how many entries a single model response may contribute.
const MaxItems = 5

// SchemaVersion is the recognition prompt schema the parser understands.
const SchemaVersion = 3

// Parse failure codes. Any of these aborts the whole response; individual
// malformed entries are skipped instead.
const (
	CodeNoJSONObject      = "NO_JSON_OBJECT"
	CodeInvalidJSON       = "INVALID_JSON"
	CodeRootNotObject     = "ROOT_NOT_OBJECT"
	CodeMissingItemsArray = "MISSING_ITEMS_ARRAY"
	CodeItemsNotList      = "ITEMS_NOT_LIST"
)

// Quantity and confidence bounds applied to every parsed entry.
const (
	MaxQuantityG      = 2000.0
	defaultConfidence = 0.5
)

// ParseError is a total parse failure with a stable machine-readable code.
type ParseError struct {
	Code string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response parse failure: %s", e.Code)
}

// Item is a single validated food entry extracted from a model response.
// Items are produced once per parse and never mutated afterwards.
type Item struct {
	Label         string
	DisplayName   string
	QuantityG     float64
	Confidence    float64
	Calories      int
	DensitySource string
}

// Dish is the full result of parsing one response: the items plus the
// presentation-facing dish title introduced by schema v3.
type Dish struct {
	Title string
	Items []Item
}

// Stats summarizes a parse attempt without ever failing the caller.
type Stats struct {
	Success       bool
	ItemCount     int
	Clamped       int
	ErrorCode     string
	SchemaVersion int
}

// Package-level compiled regex patterns for label normalization.
var (
	labelCharsRegex     = regexp.MustCompile(`[^a-zàèéìòóù 0-9]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Parse extracts validated items from raw model text. Only structural
// failures (no JSON object, invalid JSON, missing/invalid items array)
// return an error; malformed entries are dropped silently.
func Parse(raw string) ([]Item, error) {
	dish, _, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return dish.Items, nil
}

// ParseDish additionally extracts the top-level dish_title (defaulting to
// the empty string) and per-item display names.
func ParseDish(raw string) (Dish, error) {
	dish, _, err := parse(raw)
	return dish, err
}

// ParseWithStats never fails: total failures surface as a stats record
// carrying the error code instead of an error.
func ParseWithStats(raw string) ([]Item, Stats) {
	dish, clamped, err := parse(raw)
	stats := Stats{SchemaVersion: SchemaVersion}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			stats.ErrorCode = pe.Code
		}
		return nil, stats
	}
	stats.Success = true
	stats.ItemCount = len(dish.Items)
	stats.Clamped = clamped
	return dish.Items, stats
}

func parse(raw string) (Dish, int, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end <= start {
		return Dish{}, 0, &ParseError{Code: CodeNoJSONObject}
	}
	span := raw[start : end+1]

	var root interface{}
	if err := json.Unmarshal([]byte(span), &root); err != nil {
		return Dish{}, 0, &ParseError{Code: CodeInvalidJSON}
	}

	obj, ok := root.(map[string]interface{})
	if !ok {
		return Dish{}, 0, &ParseError{Code: CodeRootNotObject}
	}

	rawItems, present := obj["items"]
	if !present {
		return Dish{}, 0, &ParseError{Code: CodeMissingItemsArray}
	}
	list, ok := rawItems.([]interface{})
	if !ok {
		return Dish{}, 0, &ParseError{Code: CodeItemsNotList}
	}

	dish := Dish{}
	if title, ok := obj["dish_title"].(string); ok {
		dish.Title = title
	}

	clamped := 0
	for _, rawEntry := range list {
		if len(dish.Items) >= MaxItems {
			break
		}
		entry, ok := rawEntry.(map[string]interface{})
		if !ok {
			continue
		}

		rawLabel, ok := entry["label"].(string)
		if !ok {
			continue
		}
		label := NormalizeLabel(rawLabel)

		grams, ok := gramsFromQuantity(entry["quantity"], label)
		if !ok {
			continue
		}
		if grams < 0 {
			grams = 0
			clamped++
		} else if grams > MaxQuantityG {
			grams = MaxQuantityG
			clamped++
		}

		confidence := defaultConfidence
		if c, ok := entry["confidence"].(float64); ok {
			confidence = c
			if confidence < 0 {
				confidence = 0
				clamped++
			} else if confidence > 1 {
				confidence = 1
				clamped++
			}
		}

		displayName := label
		if dn, ok := entry["display_name"].(string); ok && dn != "" {
			displayName = dn
		}

		density, source := Density(label)
		dish.Items = append(dish.Items, Item{
			Label:         label,
			DisplayName:   displayName,
			QuantityG:     grams,
			Confidence:    confidence,
			Calories:      CaloriesFor(grams, density),
			DensitySource: source,
		})
	}

	return dish, clamped, nil
}

// gramsFromQuantity converts a raw quantity object into grams. Unit "g"
// takes the value as-is; unit "piece" multiplies by the per-food average
// piece weight. Any other shape rejects the entry.
func gramsFromQuantity(raw interface{}, label string) (float64, bool) {
	quantity, ok := raw.(map[string]interface{})
	if !ok {
		return 0, false
	}
	value, ok := quantity["value"].(float64)
	if !ok {
		return 0, false
	}
	unit, _ := quantity["unit"].(string)
	switch unit {
	case "g":
		return value, true
	case "piece":
		return value * PieceWeight(label), true
	}
	return 0, false
}

// NormalizeLabel lowercases, strips everything outside the accepted
// alphabet, and collapses internal whitespace.
func NormalizeLabel(label string) string {
	normalized := strings.ToLower(label)
	normalized = labelCharsRegex.ReplaceAllString(normalized, "")
	normalized = multipleSpacesRegex.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// CaloriesFor computes calories for grams of food at the given kcal/100g
// density.
func CaloriesFor(grams, density float64) int {
	return int(math.Round(grams * density / 100))
}
