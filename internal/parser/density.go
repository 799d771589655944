package parser

import "strings"

// Density source tags recorded on every parsed item.
const (
	DensityMap       = "map"
	DensityHeuristic = "heuristic"
	DensityFallback  = "fallback"
)

// defaultDensity is the global kcal/100g estimate for unknown foods.
const defaultDensity = 100.0

// densityTable maps exact normalized labels to kcal per 100 g.
var densityTable = map[string]float64{
	"pizza margherita":    270,
	"lasagna":             160,
	"parmigiana":          180,
	"petto di pollo":      165,
	"salmone":             208,
	"branzino":            97,
	"mozzarella":          280,
	"uovo sodo":           155,
	"insalata mista":      17,
	"patate al forno":     90,
	"tiramisù":            240,
	"grilled chicken":     165,
	"steamed rice":        130,
	"caesar salad":        190,
	"spaghetti al pomodoro": 150,
}

// Keyword families for the density heuristic, tried in order.
var densityFamilies = []struct {
	density  float64
	keywords []string
}{
	{20, []string{"insalata", "lattuga", "spinaci", "zucchine", "broccoli", "verdur", "salad", "lettuce", "spinach", "vegetable", "cavolo"}},
	{165, []string{"pollo", "chicken", "manzo", "beef", "tacchino", "turkey", "carne", "meat", "maiale", "pork"}},
	{350, []string{"riso", "rice", "pasta", "pane", "bread", "grano", "cereal", "farro", "couscous", "orzo"}},
	{60, []string{"mela", "apple", "banana", "arancia", "orange", "frutta", "fruit", "pera", "fragol", "pesca"}},
}

// pieceWeights holds average grams per piece for foods commonly counted
// rather than weighed.
var pieceWeights = map[string]float64{
	"uovo":      60,
	"egg":       60,
	"mela":      180,
	"apple":     180,
	"banana":    120,
	"arancia":   130,
	"pane":      50,
	"biscotto":  10,
	"pomodoro":  125,
}

const defaultPieceWeight = 100.0

// Density resolves the calorie density for a normalized label and reports
// which tier supplied it: the exact table, the keyword heuristic, or the
// global fallback.
func Density(label string) (float64, string) {
	if d, ok := densityTable[label]; ok {
		return d, DensityMap
	}
	for _, family := range densityFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(label, kw) {
				return family.density, DensityHeuristic
			}
		}
	}
	return defaultDensity, DensityFallback
}

// PieceWeight returns the average weight in grams of one piece of the
// given food, defaulting to 100 g for unknown labels.
func PieceWeight(label string) float64 {
	if w, ok := pieceWeights[label]; ok {
		return w
	}
	return defaultPieceWeight
}
