package fooddata

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"meal-lens/internal/nutrition"

	"github.com/PuerkitoBio/goquery"
)

// ParseCompositionHTML extracts a per-100g composition table from an HTML
// page. The expected layout is one <tr> per food with cells in the order:
// label, calories, protein, carbs, fat, fiber, sugar, sodium, calcium.
// Header rows and rows with missing or non-numeric cells are skipped.
func ParseCompositionHTML(r io.Reader) (map[string]nutrition.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse composition page: %w", err)
	}

	table := make(map[string]nutrition.Profile)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 {
			return
		}

		label := strings.TrimSpace(cells.Eq(0).Text())
		if label == "" {
			return
		}

		values := make([]float64, 8)
		for i := 0; i < 8; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(cells.Eq(i+1).Text()), 64)
			if err != nil {
				return
			}
			values[i] = v
		}

		table[strings.ToLower(label)] = nutrition.Profile{
			Calories: values[0],
			Protein:  values[1],
			Carbs:    values[2],
			Fat:      values[3],
			Fiber:    values[4],
			Sugar:    values[5],
			Sodium:   values[6],
			Calcium:  values[7],
		}
	})

	if len(table) == 0 {
		return nil, fmt.Errorf("no composition rows found in page")
	}
	return table, nil
}
