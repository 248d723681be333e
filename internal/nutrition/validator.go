package nutrition

import (
	"context"
	"fmt"
	"math"

	"nutriplan/internal/blueprint"
	"nutriplan/internal/plan"
	"nutriplan/internal/recipe"

	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the maximum tolerated absolute percentage deviation
// per core nutrient.
const DefaultThreshold = 15.0

// DeviationSet holds the signed percentage deviation of each nutrient's
// daily average from its target. A zero target yields a zero deviation.
type DeviationSet struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
}

// ValidationResult is recomputed on every validation pass and is only
// meaningful against the plan and blueprint that produced it.
type ValidationResult struct {
	IsValid         bool         `json:"is_valid"`
	Totals          Totals       `json:"totals"`
	DailyAverage    Totals       `json:"daily_average"`
	Deviations      DeviationSet `json:"deviations"`
	WithinThreshold bool         `json:"within_threshold"`
	MissingData     []string     `json:"missing_nutrition_data,omitempty"`
	Suggestions     []string     `json:"suggestions,omitempty"`
}

// Validator aggregates a plan's nutrient totals and applies the threshold
// policy against the blueprint's targets.
type Validator struct {
	resolver        *Resolver
	threshold       float64
	tolerateMissing bool
}

// NewValidator creates a Validator. A non-positive threshold falls back to
// DefaultThreshold.
func NewValidator(resolver *Resolver, threshold float64, tolerateMissing bool) *Validator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Validator{resolver: resolver, threshold: threshold, tolerateMissing: tolerateMissing}
}

// Validate resolves every meal slot, aggregates totals, and scores the
// daily average against the blueprint's targets.
func (v *Validator) Validate(ctx context.Context, draft *plan.Draft, recipes map[string]recipe.Record, bp *blueprint.Blueprint) ValidationResult {
	var result ValidationResult

	for _, day := range draft.Days {
		for _, meal := range day.Meals {
			rec, ok := recipes[meal.RecipeID]
			if !ok {
				result.MissingData = append(result.MissingData,
					fmt.Sprintf("%s %s: recipe %s not in selection", day.Day, meal.MealType, meal.RecipeID))
				continue
			}

			totals, tier, err := v.resolver.Resolve(ctx, rec, meal.Servings)
			if err != nil {
				result.MissingData = append(result.MissingData,
					fmt.Sprintf("%s %s: %v", day.Day, meal.MealType, err))
				continue
			}
			if tier == TierEstimated {
				log.Debug().Str("recipe_id", rec.ID).Msg("nutrients estimated from title keywords")
			}
			result.Totals = result.Totals.Add(totals)
		}
	}

	days := len(draft.Days)
	result.DailyAverage = result.Totals.Div(days)

	t := bp.Targets
	result.Deviations = DeviationSet{
		Calories: deviation(float64(result.DailyAverage.Calories), t.Calories),
		Protein:  deviation(result.DailyAverage.Protein, t.Protein),
		Fat:      deviation(result.DailyAverage.Fat, t.Fat),
		Carbs:    deviation(result.DailyAverage.Carbs, t.Carbs),
		Fiber:    deviation(result.DailyAverage.Fiber, t.Fiber),
	}

	d := result.Deviations
	result.WithinThreshold = math.Abs(d.Calories) <= v.threshold &&
		math.Abs(d.Protein) <= v.threshold &&
		math.Abs(d.Fat) <= v.threshold &&
		math.Abs(d.Carbs) <= v.threshold

	result.IsValid = result.WithinThreshold && (len(result.MissingData) == 0 || v.tolerateMissing)

	if !result.WithinThreshold {
		result.Suggestions = v.suggestions(d)
	}

	return result
}

// deviation is the signed percentage difference from target, defined as 0
// when the target is 0.
func deviation(actual, target float64) float64 {
	if target == 0 {
		return 0
	}
	return (actual - target) / target * 100
}

// suggestions emits one line per nutrient outside the threshold, derived
// purely from the sign and magnitude of its deviation.
func (v *Validator) suggestions(d DeviationSet) []string {
	var out []string
	for _, n := range []struct {
		name string
		dev  float64
	}{
		{"calorie", d.Calories},
		{"protein", d.Protein},
		{"fat", d.Fat},
		{"carbohydrate", d.Carbs},
	} {
		if math.Abs(n.dev) <= v.threshold {
			continue
		}
		verb := "increase"
		if n.dev > 0 {
			verb = "reduce"
		}
		out = append(out, fmt.Sprintf("%s %s intake (%+.1f%% vs target)", verb, n.name, n.dev))
	}
	return out
}
