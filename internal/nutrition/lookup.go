package nutrition

import (
	"context"
	"errors"
	"strings"

	edlib "github.com/hbollon/go-edlib"
)

// PerHundred holds nutrient values per 100 g of an ingredient.
type PerHundred struct {
	Calories float64 `json:"calories_per_100g"`
	Protein  float64 `json:"protein_per_100g"`
	Fat      float64 `json:"fat_per_100g"`
	Carbs    float64 `json:"carbs_per_100g"`
	Fiber    float64 `json:"fiber_per_100g"`
}

// ErrIngredientNotFound means the composition database has no acceptable
// match for the ingredient name.
var ErrIngredientNotFound = errors.New("ingredient not found")

// ErrLookupUnavailable means the composition database itself is unreachable.
// The resolver degrades to its heuristic tier instead of failing.
var ErrLookupUnavailable = errors.New("composition lookup unavailable")

// CompositionLookup resolves nutrient content per 100 g by ingredient name.
type CompositionLookup interface {
	Lookup(ctx context.Context, ingredientName string) (PerHundred, error)
}

// minSimilarity is the fuzzy-match floor: below it a name is treated as
// unknown rather than matched to a wrong food.
const minSimilarity = 0.72

// StaticTable is an in-memory CompositionLookup with fuzzy name matching.
type StaticTable struct {
	entries map[string]PerHundred
	names   []string
}

// NewStaticTable builds a table from entries keyed by lowercase name.
func NewStaticTable(entries map[string]PerHundred) *StaticTable {
	t := &StaticTable{entries: make(map[string]PerHundred, len(entries))}
	for name, v := range entries {
		key := strings.ToLower(strings.TrimSpace(name))
		t.entries[key] = v
		t.names = append(t.names, key)
	}
	return t
}

// Lookup finds the best fuzzy match for the ingredient name.
func (t *StaticTable) Lookup(_ context.Context, ingredientName string) (PerHundred, error) {
	name := strings.ToLower(strings.TrimSpace(ingredientName))
	if name == "" {
		return PerHundred{}, ErrIngredientNotFound
	}

	if v, ok := t.entries[name]; ok {
		return v, nil
	}

	// Substring containment beats edit distance for compound names like
	// "boneless chicken breast".
	for _, known := range t.names {
		if strings.Contains(name, known) || strings.Contains(known, name) {
			return t.entries[known], nil
		}
	}

	best := ""
	var bestScore float32
	for _, known := range t.names {
		score, err := edlib.StringsSimilarity(name, known, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = known
		}
	}
	if best == "" || bestScore < minSimilarity {
		return PerHundred{}, ErrIngredientNotFound
	}
	return t.entries[best], nil
}

// DefaultTable covers common staples so the computed tier works out of the
// box without an external composition service.
func DefaultTable() *StaticTable {
	return NewStaticTable(map[string]PerHundred{
		"chicken breast": {Calories: 165, Protein: 31, Fat: 3.6, Carbs: 0, Fiber: 0},
		"beef":           {Calories: 250, Protein: 26, Fat: 15, Carbs: 0, Fiber: 0},
		"pork":           {Calories: 242, Protein: 27, Fat: 14, Carbs: 0, Fiber: 0},
		"salmon":         {Calories: 208, Protein: 20, Fat: 13, Carbs: 0, Fiber: 0},
		"tuna":           {Calories: 132, Protein: 28, Fat: 1.3, Carbs: 0, Fiber: 0},
		"egg":            {Calories: 155, Protein: 13, Fat: 11, Carbs: 1.1, Fiber: 0},
		"milk":           {Calories: 42, Protein: 3.4, Fat: 1, Carbs: 5, Fiber: 0},
		"yogurt":         {Calories: 59, Protein: 10, Fat: 0.7, Carbs: 3.6, Fiber: 0},
		"cheese":         {Calories: 402, Protein: 25, Fat: 33, Carbs: 1.3, Fiber: 0},
		"butter":         {Calories: 717, Protein: 0.9, Fat: 81, Carbs: 0.1, Fiber: 0},
		"olive oil":      {Calories: 884, Protein: 0, Fat: 100, Carbs: 0, Fiber: 0},
		"rice":           {Calories: 130, Protein: 2.7, Fat: 0.3, Carbs: 28, Fiber: 0.4},
		"pasta":          {Calories: 131, Protein: 5, Fat: 1.1, Carbs: 25, Fiber: 1.8},
		"bread":          {Calories: 265, Protein: 9, Fat: 3.2, Carbs: 49, Fiber: 2.7},
		"oats":           {Calories: 389, Protein: 16.9, Fat: 6.9, Carbs: 66, Fiber: 10.6},
		"flour":          {Calories: 364, Protein: 10, Fat: 1, Carbs: 76, Fiber: 2.7},
		"potato":         {Calories: 77, Protein: 2, Fat: 0.1, Carbs: 17, Fiber: 2.2},
		"tomato":         {Calories: 18, Protein: 0.9, Fat: 0.2, Carbs: 3.9, Fiber: 1.2},
		"onion":          {Calories: 40, Protein: 1.1, Fat: 0.1, Carbs: 9.3, Fiber: 1.7},
		"carrot":         {Calories: 41, Protein: 0.9, Fat: 0.2, Carbs: 9.6, Fiber: 2.8},
		"broccoli":       {Calories: 34, Protein: 2.8, Fat: 0.4, Carbs: 6.6, Fiber: 2.6},
		"spinach":        {Calories: 23, Protein: 2.9, Fat: 0.4, Carbs: 3.6, Fiber: 2.2},
		"lettuce":        {Calories: 15, Protein: 1.4, Fat: 0.2, Carbs: 2.9, Fiber: 1.3},
		"bean":           {Calories: 127, Protein: 8.7, Fat: 0.5, Carbs: 22.8, Fiber: 6.4},
		"lentil":         {Calories: 116, Protein: 9, Fat: 0.4, Carbs: 20, Fiber: 7.9},
		"chickpea":       {Calories: 164, Protein: 8.9, Fat: 2.6, Carbs: 27.4, Fiber: 7.6},
		"tofu":           {Calories: 76, Protein: 8, Fat: 4.8, Carbs: 1.9, Fiber: 0.3},
		"avocado":        {Calories: 160, Protein: 2, Fat: 14.7, Carbs: 8.5, Fiber: 6.7},
		"banana":         {Calories: 89, Protein: 1.1, Fat: 0.3, Carbs: 22.8, Fiber: 2.6},
		"apple":          {Calories: 52, Protein: 0.3, Fat: 0.2, Carbs: 13.8, Fiber: 2.4},
		"sugar":          {Calories: 387, Protein: 0, Fat: 0, Carbs: 100, Fiber: 0},
		"quinoa":         {Calories: 120, Protein: 4.4, Fat: 1.9, Carbs: 21.3, Fiber: 2.8},
	})
}
