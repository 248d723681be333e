// Package blueprint holds the structured user profile a generation attempt
// runs against. A Blueprint is immutable input owned by the caller.
package blueprint

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned when a blueprint is missing the data the
// generation pipeline needs. It is fatal and not retried; the caller must
// supply more data.
var ErrIncomplete = errors.New("blueprint incomplete")

// NutritionTargets are the daily targets a weekly plan is validated against.
type NutritionTargets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber,omitempty"`
}

// RatingEntry records one recent recipe rating.
type RatingEntry struct {
	RecipeID string `json:"recipe_id"`
	Verdict  string `json:"verdict"` // "loved", "liked", "disliked"
}

// Blueprint describes one user's constraints, targets and history for a
// generation attempt.
type Blueprint struct {
	UserID        string   `json:"user_id"`
	DietType      string   `json:"diet_type"` // "omnivore", "vegetarian", "vegan", "pescatarian"
	Allergens     []string `json:"allergens"`
	Dislikes      []string `json:"dislikes"`
	HouseholdSize int      `json:"household_size"`
	SkillLevel    string   `json:"skill_level"`
	MaxPrepTime   int      `json:"max_prep_time_minutes"` // per-meal cap, prep+cook
	Cuisines      []string `json:"preferred_cuisines"`
	FlavorNotes   []string `json:"flavor_notes"`

	Targets NutritionTargets `json:"targets"`

	RecentRatings  []RatingEntry `json:"recent_ratings,omitempty"`
	RecentSwaps    []string      `json:"recent_swaps,omitempty"` // recipe ids swapped away from
	ExcludeRecipes []string      `json:"exclude_recipes,omitempty"`
	Premium        bool          `json:"premium"`
}

// Validate is the pipeline entry guard: required fields present and
// nutritional targets computable.
func (b *Blueprint) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil blueprint", ErrIncomplete)
	}
	if b.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrIncomplete)
	}
	if b.DietType == "" {
		return fmt.Errorf("%w: missing diet type", ErrIncomplete)
	}
	if b.HouseholdSize <= 0 {
		return fmt.Errorf("%w: household size must be positive", ErrIncomplete)
	}
	t := b.Targets
	if t.Calories <= 0 || t.Protein <= 0 || t.Fat <= 0 || t.Carbs <= 0 {
		return fmt.Errorf("%w: nutritional targets not computable", ErrIncomplete)
	}
	return nil
}

// LovedRecently reports whether the recipe was rated "loved" within the
// last n ratings.
func (b *Blueprint) LovedRecently(recipeID string, n int) bool {
	ratings := b.RecentRatings
	if len(ratings) > n {
		ratings = ratings[:n]
	}
	for _, r := range ratings {
		if r.RecipeID == recipeID && r.Verdict == "loved" {
			return true
		}
	}
	return false
}

// SwappedRecently reports whether the user recently swapped away from the
// recipe.
func (b *Blueprint) SwappedRecently(recipeID string) bool {
	for _, id := range b.RecentSwaps {
		if id == recipeID {
			return true
		}
	}
	return false
}
