package planner

import (
	"context"
	"time"

	"nutriplan/internal/blueprint"
	"nutriplan/internal/plan"
	"nutriplan/internal/recipe"

	"github.com/rs/zerolog/log"
)

const (
	fallbackDays      = 3
	fallbackPoolLimit = 12
	fallbackMaxTime   = 30 // minutes, prep plus cook
	fallbackMinRating = 4.0
)

// buildFallback deterministically constructs a 3-day plan from a small
// pool of highly rated, quick, non-premium, non-spicy recipes. It never
// retries; an empty pool is ErrCompleteFailure.
func (e *Engine) buildFallback(ctx context.Context, bp *blueprint.Blueprint, weekStart time.Time) (*plan.Draft, error) {
	nonPremium := false
	pool, err := e.store.List(ctx, recipe.Query{
		MaxTotalTime: fallbackMaxTime,
		MinRating:    fallbackMinRating,
		Premium:      &nonPremium,
		ExcludeTags:  []string{"spicy"},
		Limit:        fallbackPoolLimit,
	})
	if err != nil {
		log.Error().Err(err).Msg("fallback pool query failed")
		return nil, ErrCompleteFailure
	}
	if len(pool) == 0 {
		return nil, ErrCompleteFailure
	}

	servings := float64(bp.HouseholdSize)
	if servings <= 0 {
		servings = 1
	}

	draft := &plan.Draft{WeekStart: weekStart, WeekTheme: "simple week"}
	for d := 0; d < fallbackDays; d++ {
		date := weekStart.AddDate(0, 0, d)
		day := plan.DaySlot{Day: date.Weekday().String(), Date: date.Format("2006-01-02")}
		for mi, mealType := range plan.RequiredMealTypes {
			rec := pool[(d*len(plan.RequiredMealTypes)+mi)%len(pool)]
			day.Meals = append(day.Meals, plan.MealSlot{
				MealType: mealType,
				RecipeID: rec.ID,
				Servings: servings,
			})
		}
		draft.Days = append(draft.Days, day)
	}
	return draft, nil
}
