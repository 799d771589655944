package nutrition

import (
	"context"
	"log"
	"sync"

	"meal-lens/internal/parser"
)

// Enrichment sources reported to downstream consumers.
const (
	SourceUSDA    = "usda"
	SourceDefault = "default"
)

// defaultProfile is the generic per-100g fallback applied when no tier
// knows the food.
var defaultProfile = Profile{
	Protein: 2.0,
	Carbs:   10.0,
	Fat:     1.0,
	Fiber:   1.0,
	Sugar:   2.0,
	Sodium:  50.0,
	Calcium: 30.0,
}

// Result is the nutrient resolution for a single parsed item, scaled to the
// item's quantity. Success reports whether an authoritative source matched;
// the generic default still yields a usable (but degraded) result.
type Result struct {
	Success  bool
	Source   string
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
	Sugar    float64
	Sodium   float64
	Calcium  float64
	Calories float64
}

// Lookuper resolves a per-100g profile for a normalized label from a remote
// provider. A false second return means not-found (not an error).
type Lookuper interface {
	Lookup(ctx context.Context, label string) (Profile, bool, error)
}

// Stats counts cascade activity per tier.
type Stats struct {
	Total      int
	TableHits  int
	RemoteHits int
	Defaults   int
}

// Cascade resolves nutrients through a trust-ordered sequence of sources:
// local table, optional remote provider, generic default. The last tier
// always succeeds, so Enrich never fails.
type Cascade struct {
	table  *Table
	remote Lookuper

	mu    sync.Mutex
	stats Stats
}

// NewCascade creates a Cascade over the given table. remote may be nil.
func NewCascade(table *Table, remote Lookuper) *Cascade {
	return &Cascade{table: table, remote: remote}
}

// Enrich resolves nutrients for every item, order preserved: exactly one
// Result per input item.
func (c *Cascade) Enrich(ctx context.Context, items []parser.Item) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, c.enrichOne(ctx, item))
	}
	return results
}

func (c *Cascade) enrichOne(ctx context.Context, item parser.Item) Result {
	if profile, ok := c.table.Lookup(item.Label); ok {
		c.count(func(s *Stats) { s.Total++; s.TableHits++ })
		return scale(profile, item.QuantityG, SourceUSDA, true)
	}

	if c.remote != nil {
		profile, ok, err := c.remote.Lookup(ctx, item.Label)
		if err != nil {
			// Remote faults degrade to the next tier; the cascade never fails.
			log.Printf("Warning: remote nutrition lookup for '%s' failed: %v", item.Label, err)
		} else if ok {
			c.count(func(s *Stats) { s.Total++; s.RemoteHits++ })
			return scale(profile, item.QuantityG, SourceUSDA, true)
		}
	}

	c.count(func(s *Stats) { s.Total++; s.Defaults++ })
	return scale(defaultProfile, item.QuantityG, SourceDefault, false)
}

// Stats returns a snapshot of the per-tier counters.
func (c *Cascade) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cascade) count(update func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.stats)
}

// scale converts a per-100g profile to the item quantity. Calories come
// from the profile when supplied, otherwise from Atwater factors
// (4 kcal/g protein, 4 kcal/g carbs, 9 kcal/g fat).
func scale(p Profile, quantityG float64, source string, success bool) Result {
	factor := quantityG / 100.0
	r := Result{
		Success: success,
		Source:  source,
		Protein: p.Protein * factor,
		Carbs:   p.Carbs * factor,
		Fat:     p.Fat * factor,
		Fiber:   p.Fiber * factor,
		Sugar:   p.Sugar * factor,
		Sodium:  p.Sodium * factor,
		Calcium: p.Calcium * factor,
	}
	if p.Calories > 0 {
		r.Calories = p.Calories * factor
	} else {
		r.Calories = r.Protein*4 + r.Carbs*4 + r.Fat*9
	}
	return r
}
