// Package selection turns the recipe corpus into a scored, diversity-
// constrained candidate set for one generation attempt.
package selection

import (
	"context"
	"errors"

	"nutriplan/internal/recipe"
	"nutriplan/internal/shared"
)

// ErrNoEligibleRecipes means the hard-constraint filter produced an empty
// working set. Fatal for the attempt; retrying without changed constraints
// cannot help.
var ErrNoEligibleRecipes = errors.New("no eligible recipes")

// ErrScorerUnavailable signals the personalization scorer could not be
// reached. Recoverable: selection degrades to intrinsic-only scoring.
var ErrScorerUnavailable = errors.New("personalization scorer unavailable")

// Candidate wraps a recipe with its computed suitability scores for one
// generation attempt. Created per attempt, discarded after.
type Candidate struct {
	Recipe recipe.Record `json:"recipe"`

	BaseScore            float64 `json:"base_score"`            // from intrinsic rating, 0-100
	PersonalizationScore float64 `json:"personalization_score"` // from the external scorer, 0-100
	FinalScore           float64 `json:"final_score"`           // weighted combination, 0-100

	MatchReasons   []string `json:"match_reasons,omitempty"`
	PenaltyReasons []string `json:"penalty_reasons,omitempty"`
}

// RecipeSummary is the compact recipe view submitted to the scorer.
type RecipeSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Cuisine   string   `json:"cuisine"`
	MealTypes []string `json:"meal_types"`
	Tags      []string `json:"tags"`
	TotalTime int      `json:"total_time_minutes"`
	Rating    float64  `json:"rating"`
}

// UserSummary is the compact blueprint view submitted to the scorer.
type UserSummary struct {
	DietType    string   `json:"diet_type"`
	Allergens   []string `json:"allergens,omitempty"`
	Dislikes    []string `json:"dislikes,omitempty"`
	Cuisines    []string `json:"preferred_cuisines,omitempty"`
	FlavorNotes []string `json:"flavor_notes,omitempty"`
	SkillLevel  string   `json:"skill_level,omitempty"`
}

// ScoreEntry is the scorer's verdict for one recipe.
type ScoreEntry struct {
	Score          float64  `json:"score"`
	MatchReasons   []string `json:"match_reasons,omitempty"`
	PenaltyReasons []string `json:"penalty_reasons,omitempty"`
}

// Scorer is the external personalization scoring service. Implementations
// must be safe for concurrent independent calls. Partial output (missing
// recipe ids) is expected and tolerated by the selector.
type Scorer interface {
	Score(ctx context.Context, recipes []RecipeSummary, user UserSummary) (map[string]ScoreEntry, shared.AgentMeta, error)
}
