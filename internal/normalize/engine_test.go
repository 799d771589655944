package normalize

import (
	"testing"

	"meal-lens/internal/nutrition"
	"meal-lens/internal/parser"
)

func TestClassify(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	cases := map[string]string{
		"prezzemolo fresco": "herb",
		"scorza di limone":  "citrus_garnish",
		"branzino al forno": "lean_fish",
		"insalata mista":    "leafy_vegetable",
		"petto di pollo":    "poultry",
		"riso basmati":      "grain",
		"mela verde":        "fruit",
		"mozzarella":        "dairy",
		"zuppa misteriosa":  CategoryGeneral,
	}
	for label, want := range cases {
		if got := engine.Classify(label); got != want {
			t.Errorf("Classify(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestNormalizeGarnishClampDown(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	items := []parser.Item{{Label: "prezzemolo", QuantityG: 80}}
	enriched := []nutrition.Result{{Calories: 28.8, Protein: 2.4, Carbs: 5.04, Fat: 0.64, Fiber: 2.64}}

	normalized, advisories := engine.Normalize(items, enriched)
	if len(normalized) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(normalized))
	}
	if len(advisories) != 0 {
		t.Errorf("Expected no advisories in enforce mode, got %d", len(advisories))
	}

	item := normalized[0]
	if item.QuantityG != 10 {
		t.Errorf("Expected herb clamped down to 10g, got %v", item.QuantityG)
	}
	if !item.Clamped {
		t.Error("Expected clamp flag to be set")
	}
	// Nutrients rescale with the quantity: 10/80 of the original.
	if item.Calories < 3.59 || item.Calories > 3.61 {
		t.Errorf("Expected calories rescaled to 3.6, got %v", item.Calories)
	}
}

func TestNormalizeGarnishClampUp(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	items := []parser.Item{{Label: "limone", QuantityG: 2}}
	enriched := []nutrition.Result{{Calories: 0.58}}

	normalized, _ := engine.Normalize(items, enriched)
	if normalized[0].QuantityG != 5 {
		t.Errorf("Expected citrus garnish clamped up to 5g, got %v", normalized[0].QuantityG)
	}
	if !normalized[0].Clamped {
		t.Error("Expected clamp flag to be set")
	}
}

func TestNormalizeGarnishWithinBounds(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	items := []parser.Item{{Label: "prezzemolo", QuantityG: 5}}
	enriched := []nutrition.Result{{Calories: 1.8}}

	normalized, _ := engine.Normalize(items, enriched)
	if normalized[0].QuantityG != 5 {
		t.Errorf("Expected quantity untouched, got %v", normalized[0].QuantityG)
	}
	if normalized[0].Clamped {
		t.Error("Expected no clamp flag for in-bounds garnish")
	}
}

func TestNormalizeHardConstraint(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	// Enrichment fell through to the generic default, which wrongly gives
	// a lean fish 10g of carbs per 100g.
	items := []parser.Item{{Label: "branzino", QuantityG: 150}}
	enriched := []nutrition.Result{{Source: nutrition.SourceDefault, Calories: 85.5, Protein: 3.0, Carbs: 15.0, Fat: 1.5, Fiber: 1.5}}

	normalized, _ := engine.Normalize(items, enriched)
	if normalized[0].Carbs != 0 {
		t.Errorf("Expected carbs forced to 0 for lean fish, got %v", normalized[0].Carbs)
	}
	if normalized[0].Category != "lean_fish" {
		t.Errorf("Expected lean_fish category, got %s", normalized[0].Category)
	}
	// Other nutrients stay as enriched.
	if normalized[0].Protein != 3.0 {
		t.Errorf("Expected protein untouched, got %v", normalized[0].Protein)
	}
}

func TestNormalizeAdviseMode(t *testing.T) {
	engine := NewEngine(ModeAdvise, nil)

	items := []parser.Item{
		{Label: "prezzemolo", QuantityG: 80},
		{Label: "branzino", QuantityG: 150},
	}
	enriched := []nutrition.Result{
		{Calories: 28.8},
		{Carbs: 15.0},
	}

	normalized, advisories := engine.Normalize(items, enriched)

	// Nothing is applied in advise mode.
	if normalized[0].QuantityG != 80 {
		t.Errorf("Expected quantity untouched in advise mode, got %v", normalized[0].QuantityG)
	}
	if normalized[1].Carbs != 15.0 {
		t.Errorf("Expected carbs untouched in advise mode, got %v", normalized[1].Carbs)
	}
	if len(advisories) != 2 {
		t.Fatalf("Expected 2 advisories, got %d", len(advisories))
	}
}

func TestNormalizeOrderPreserved(t *testing.T) {
	engine := NewEngine(ModeEnforce, nil)

	items := []parser.Item{
		{Label: "riso", QuantityG: 100},
		{Label: "pollo", QuantityG: 100},
		{Label: "qualcosa", QuantityG: 100},
	}
	enriched := make([]nutrition.Result, len(items))

	normalized, _ := engine.Normalize(items, enriched)
	want := []string{"grain", "poultry", CategoryGeneral}
	for i, item := range normalized {
		if item.Category != want[i] {
			t.Errorf("Item %d: expected category %s, got %s", i, want[i], item.Category)
		}
	}
}

func TestNewEngineOverrides(t *testing.T) {
	override := CategoryProfile{
		Name:         "herb",
		Keywords:     []string{"prezzemolo"},
		IsGarnish:    true,
		MaxQuantityG: ptr(25),
	}
	engine := NewEngine(ModeEnforce, []CategoryProfile{override})

	items := []parser.Item{{Label: "prezzemolo", QuantityG: 80}}
	normalized, _ := engine.Normalize(items, make([]nutrition.Result, 1))
	if normalized[0].QuantityG != 25 {
		t.Errorf("Expected override clamp to 25g, got %v", normalized[0].QuantityG)
	}
}
