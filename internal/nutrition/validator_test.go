package nutrition

import (
	"context"
	"testing"

	"nutriplan/internal/blueprint"
	"nutriplan/internal/plan"
	"nutriplan/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weekOf builds a seven-day draft where every day holds the same single
// meal, so the daily average equals that meal's totals exactly.
func weekOf(recipeID string) *plan.Draft {
	d := &plan.Draft{}
	for i := 0; i < 7; i++ {
		d.Days = append(d.Days, plan.DaySlot{
			Day:   "day",
			Meals: []plan.MealSlot{{MealType: plan.MealDinner, RecipeID: recipeID, Servings: 1}},
		})
	}
	return d
}

func declaredRecipe(id string, calories int, protein, fat, carbs float64) recipe.Record {
	return recipe.Record{
		ID:       id,
		Title:    id,
		Servings: 1,
		Nutrition: &recipe.NutrientInfo{
			Calories: calories, Protein: protein, Fat: fat, Carbs: carbs,
		},
	}
}

func TestValidateWithinThreshold(t *testing.T) {
	v := NewValidator(NewResolver(DefaultTable()), 15, false)

	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 2000, Protein: 150, Fat: 67, Carbs: 250},
	}
	rec := declaredRecipe("day-meal", 1985, 145, 71, 248)
	draft := weekOf(rec.ID)

	res := v.Validate(context.Background(), draft, map[string]recipe.Record{rec.ID: rec}, bp)

	require.True(t, res.WithinThreshold)
	require.True(t, res.IsValid)
	assert.Equal(t, 1985, res.DailyAverage.Calories)
	assert.InDelta(t, -0.75, res.Deviations.Calories, 0.01)
	assert.InDelta(t, -3.33, res.Deviations.Protein, 0.01)
	assert.InDelta(t, 5.97, res.Deviations.Fat, 0.01)
	assert.InDelta(t, -0.8, res.Deviations.Carbs, 0.01)
	assert.Empty(t, res.Suggestions)
}

func TestValidateThresholdBoundary(t *testing.T) {
	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 100},
	}

	v := NewValidator(NewResolver(DefaultTable()), 15, false)

	// Exactly +15% sits inside the threshold.
	at := declaredRecipe("at-boundary", 115, 0, 0, 0)
	res := v.Validate(context.Background(), weekOf(at.ID), map[string]recipe.Record{at.ID: at}, bp)
	assert.True(t, res.WithinThreshold)

	// +16% is out.
	over := declaredRecipe("over-boundary", 116, 0, 0, 0)
	res = v.Validate(context.Background(), weekOf(over.ID), map[string]recipe.Record{over.ID: over}, bp)
	assert.False(t, res.WithinThreshold)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0], "reduce calorie intake")
}

func TestValidateSuggestsIncreaseWhenUnder(t *testing.T) {
	v := NewValidator(NewResolver(DefaultTable()), 15, false)

	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 2000, Protein: 150},
	}
	rec := declaredRecipe("light-meal", 1950, 100, 0, 0)
	res := v.Validate(context.Background(), weekOf(rec.ID), map[string]recipe.Record{rec.ID: rec}, bp)

	assert.False(t, res.WithinThreshold)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0], "increase protein intake")
}

func TestValidateMissingRecipeTolerance(t *testing.T) {
	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 100},
	}
	rec := declaredRecipe("present", 100, 0, 0, 0)
	recipes := map[string]recipe.Record{rec.ID: rec}

	draft := weekOf(rec.ID)
	draft.Days[0].Meals = append(draft.Days[0].Meals,
		plan.MealSlot{MealType: plan.MealSnack, RecipeID: "ghost", Servings: 1})

	strict := NewValidator(NewResolver(DefaultTable()), 15, false)
	res := strict.Validate(context.Background(), draft, recipes, bp)
	assert.True(t, res.WithinThreshold)
	assert.False(t, res.IsValid)
	require.Len(t, res.MissingData, 1)

	tolerant := NewValidator(NewResolver(DefaultTable()), 15, true)
	res = tolerant.Validate(context.Background(), draft, recipes, bp)
	assert.True(t, res.IsValid)
}

func TestValidateIdempotent(t *testing.T) {
	v := NewValidator(NewResolver(DefaultTable()), 15, false)

	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 2000, Protein: 150, Fat: 67, Carbs: 250},
	}
	rec := declaredRecipe("stable", 1985, 145, 71, 248)
	draft := weekOf(rec.ID)
	recipes := map[string]recipe.Record{rec.ID: rec}

	first := v.Validate(context.Background(), draft, recipes, bp)
	second := v.Validate(context.Background(), draft, recipes, bp)
	assert.Equal(t, first, second)
}

func TestValidateZeroTargetYieldsZeroDeviation(t *testing.T) {
	v := NewValidator(NewResolver(DefaultTable()), 15, false)

	bp := &blueprint.Blueprint{
		Targets: blueprint.NutritionTargets{Calories: 100},
	}
	rec := declaredRecipe("fiber-free", 100, 50, 50, 50)
	res := v.Validate(context.Background(), weekOf(rec.ID), map[string]recipe.Record{rec.ID: rec}, bp)

	assert.Zero(t, res.Deviations.Protein)
	assert.Zero(t, res.Deviations.Fat)
	assert.Zero(t, res.Deviations.Carbs)
	assert.True(t, res.WithinThreshold)
}
