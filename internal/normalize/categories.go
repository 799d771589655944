package normalize

import "meal-lens/internal/nutrition"

// CategoryProfile is static reference data describing one food category:
// its typical per-100g nutrients, whether it is a garnish (and the clamp
// bounds that apply to garnish quantity estimates), and any nutrient values
// that are forced regardless of what enrichment produced.
type CategoryProfile struct {
	Name             string             `json:"name"`
	Keywords         []string           `json:"keywords"`
	NutrientsPer100g nutrition.Profile  `json:"nutrients_per_100g"`
	IsGarnish        bool               `json:"is_garnish"`
	MinQuantityG     *float64           `json:"min_quantity_g,omitempty"`
	MaxQuantityG     *float64           `json:"max_quantity_g,omitempty"`
	HardConstraints  map[string]float64 `json:"hard_constraints,omitempty"`
}

// CategoryGeneral is the catch-all category for unmatched labels.
const CategoryGeneral = "general"

func ptr(v float64) *float64 { return &v }

// builtinCategories are matched in order; the first keyword hit wins.
var builtinCategories = []CategoryProfile{
	{
		Name:         "herb",
		Keywords:     []string{"prezzemolo", "basilico", "parsley", "basil", "rosmarino", "rosemary", "salvia", "erba", "menta"},
		IsGarnish:    true,
		MaxQuantityG: ptr(10),
		NutrientsPer100g: nutrition.Profile{
			Calories: 36, Protein: 3.0, Carbs: 6.3, Fat: 0.8, Fiber: 3.3,
		},
	},
	{
		Name:         "citrus_garnish",
		Keywords:     []string{"limone", "lemon", "lime", "scorza"},
		IsGarnish:    true,
		MinQuantityG: ptr(5),
		NutrientsPer100g: nutrition.Profile{
			Calories: 29, Protein: 1.1, Carbs: 9.3, Fat: 0.3, Fiber: 2.8,
		},
	},
	{
		Name:     "lean_fish",
		Keywords: []string{"branzino", "orata", "merluzzo", "sogliola", "cod", "sea bass", "sole", "nasello"},
		HardConstraints: map[string]float64{
			"carbs": 0,
		},
		NutrientsPer100g: nutrition.Profile{
			Calories: 97, Protein: 18.4, Fat: 2.0,
		},
	},
	{
		Name:     "leafy_vegetable",
		Keywords: []string{"insalata", "lattuga", "spinaci", "lettuce", "spinach", "rucola", "salad"},
		NutrientsPer100g: nutrition.Profile{
			Calories: 20, Protein: 1.5, Carbs: 3.5, Fat: 0.2, Fiber: 2.0,
		},
	},
	{
		Name:     "poultry",
		Keywords: []string{"pollo", "tacchino", "chicken", "turkey"},
		NutrientsPer100g: nutrition.Profile{
			Calories: 165, Protein: 31.0, Fat: 3.6,
		},
	},
	{
		Name:     "grain",
		Keywords: []string{"riso", "pasta", "pane", "rice", "bread", "farro", "couscous"},
		NutrientsPer100g: nutrition.Profile{
			Calories: 350, Protein: 8.0, Carbs: 72.0, Fat: 1.5, Fiber: 3.0,
		},
	},
	{
		Name:     "fruit",
		Keywords: []string{"mela", "banana", "arancia", "apple", "orange", "pera", "fragola", "frutta", "fruit"},
		NutrientsPer100g: nutrition.Profile{
			Calories: 60, Protein: 0.7, Carbs: 15.0, Fat: 0.2, Fiber: 2.4,
		},
	},
	{
		Name:     "dairy",
		Keywords: []string{"mozzarella", "formaggio", "cheese", "yogurt", "latte", "milk", "ricotta"},
		NutrientsPer100g: nutrition.Profile{
			Calories: 280, Protein: 18.0, Carbs: 3.1, Fat: 22.0,
		},
	},
}
