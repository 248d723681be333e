package recipe

import "context"

// Ingredient is a single line of a recipe's ingredient list.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// NutrientInfo is declared per-recipe nutrient data, tagged with where it
// came from and how much we trust it.
type NutrientInfo struct {
	Calories   int     `json:"calories"`
	Protein    float64 `json:"protein"`
	Fat        float64 `json:"fat"`
	Carbs      float64 `json:"carbs"`
	Fiber      float64 `json:"fiber"`
	Source     string  `json:"source,omitempty"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Record is a recipe as stored by the recipe database. The generation core
// treats it as read-only.
type Record struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Ingredients []Ingredient  `json:"ingredients"`
	Nutrition   *NutrientInfo `json:"nutrition,omitempty"`
	Servings    int           `json:"servings"`
	PrepTime    int           `json:"prep_time_minutes"`
	CookTime    int           `json:"cook_time_minutes"`
	Difficulty  string        `json:"difficulty"`
	Cuisine     string        `json:"cuisine"`
	MealTypes   []string      `json:"meal_types"`
	Tags        []string      `json:"tags"`
	Premium     bool          `json:"premium"`
	Rating      float64       `json:"rating"`
	RatingCount int           `json:"rating_count"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

// TotalTime is prep plus cook time in minutes.
func (r Record) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// HasMealType reports whether the recipe is tagged for the given meal type.
func (r Record) HasMealType(mealType string) bool {
	for _, mt := range r.MealTypes {
		if mt == mealType {
			return true
		}
	}
	return false
}

// Query narrows a Store listing. Zero values mean "no constraint".
type Query struct {
	MaxTotalTime int
	MinRating    float64
	Premium      *bool
	ExcludeTags  []string
	Limit        int
}

// Store is read-only access to the recipe corpus.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	GetByIDs(ctx context.Context, ids []string) ([]Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
}
