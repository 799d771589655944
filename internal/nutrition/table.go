package nutrition

import "sync"

// Profile holds nutrient amounts per 100 g of food. A zero Calories value
// means calories are derived from macros via Atwater factors.
type Profile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	Calcium  float64 `json:"calcium"`
}

// Table is the authoritative per-100g nutrition table, keyed by normalized
// label. It ships with a built-in data set and can be merged with entries
// fetched from the remote food-data service.
type Table struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewTable creates a Table seeded with the built-in data set.
func NewTable() *Table {
	profiles := make(map[string]Profile, len(builtinProfiles))
	for label, p := range builtinProfiles {
		profiles[label] = p
	}
	return &Table{profiles: profiles}
}

// Lookup returns the per-100g profile for a normalized label.
func (t *Table) Lookup(label string) (Profile, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.profiles[label]
	return p, ok
}

// Merge adds or replaces entries, returning how many were applied.
func (t *Table) Merge(entries map[string]Profile) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for label, p := range entries {
		t.profiles[label] = p
	}
	return len(entries)
}

// Len reports the number of known labels.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.profiles)
}

var builtinProfiles = map[string]Profile{
	"petto di pollo":  {Calories: 165, Protein: 31.0, Carbs: 0.0, Fat: 3.6, Fiber: 0.0, Sugar: 0.0, Sodium: 74.0, Calcium: 15.0},
	"grilled chicken": {Calories: 165, Protein: 31.0, Carbs: 0.0, Fat: 3.6, Fiber: 0.0, Sugar: 0.0, Sodium: 74.0, Calcium: 15.0},
	"riso":            {Calories: 130, Protein: 2.7, Carbs: 28.0, Fat: 0.3, Fiber: 0.4, Sugar: 0.1, Sodium: 1.0, Calcium: 10.0},
	"steamed rice":    {Calories: 130, Protein: 2.7, Carbs: 28.0, Fat: 0.3, Fiber: 0.4, Sugar: 0.1, Sodium: 1.0, Calcium: 10.0},
	"pasta":           {Calories: 158, Protein: 5.8, Carbs: 31.0, Fat: 0.9, Fiber: 1.8, Sugar: 0.6, Sodium: 1.0, Calcium: 7.0},
	"pane":            {Calories: 265, Protein: 9.0, Carbs: 49.0, Fat: 3.2, Fiber: 2.7, Sugar: 5.0, Sodium: 491.0, Calcium: 144.0},
	"insalata mista":  {Calories: 17, Protein: 1.2, Carbs: 3.3, Fat: 0.2, Fiber: 2.1, Sugar: 1.2, Sodium: 28.0, Calcium: 36.0},
	"pomodoro":        {Calories: 18, Protein: 0.9, Carbs: 3.9, Fat: 0.2, Fiber: 1.2, Sugar: 2.6, Sodium: 5.0, Calcium: 10.0},
	"mela":            {Calories: 52, Protein: 0.3, Carbs: 14.0, Fat: 0.2, Fiber: 2.4, Sugar: 10.4, Sodium: 1.0, Calcium: 6.0},
	"banana":          {Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Fiber: 2.6, Sugar: 12.2, Sodium: 1.0, Calcium: 5.0},
	"salmone":         {Calories: 208, Protein: 20.4, Carbs: 0.0, Fat: 13.4, Fiber: 0.0, Sugar: 0.0, Sodium: 59.0, Calcium: 9.0},
	"branzino":        {Calories: 97, Protein: 18.4, Carbs: 0.0, Fat: 2.0, Fiber: 0.0, Sugar: 0.0, Sodium: 68.0, Calcium: 10.0},
	"uovo sodo":       {Calories: 155, Protein: 12.6, Carbs: 1.1, Fat: 10.6, Fiber: 0.0, Sugar: 1.1, Sodium: 124.0, Calcium: 50.0},
	"mozzarella":      {Calories: 280, Protein: 18.0, Carbs: 3.1, Fat: 22.0, Fiber: 0.0, Sugar: 1.0, Sodium: 16.0, Calcium: 505.0},
	"patate al forno": {Calories: 90, Protein: 2.0, Carbs: 20.0, Fat: 0.1, Fiber: 1.8, Sugar: 0.8, Sodium: 10.0, Calcium: 10.0},
	"prezzemolo":      {Calories: 36, Protein: 3.0, Carbs: 6.3, Fat: 0.8, Fiber: 3.3, Sugar: 0.9, Sodium: 56.0, Calcium: 138.0},
	"limone":          {Calories: 29, Protein: 1.1, Carbs: 9.3, Fat: 0.3, Fiber: 2.8, Sugar: 2.5, Sodium: 2.0, Calcium: 26.0},
}
