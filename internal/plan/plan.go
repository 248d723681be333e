// Package plan defines the weekly plan structure shared by the assembler,
// the nutrition validator and the generation engine.
package plan

import (
	"fmt"
	"time"
)

// Meal slot types. Breakfast, lunch and dinner are required on every day;
// snack is optional.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// RequiredMealTypes are the slots every day must fill.
var RequiredMealTypes = []string{MealBreakfast, MealLunch, MealDinner}

// MealSlot binds one meal position to a candidate recipe.
type MealSlot struct {
	MealType string  `json:"meal_type"`
	RecipeID string  `json:"recipe_id"`
	Servings float64 `json:"servings"`
}

// DaySlot is one day of the plan.
type DaySlot struct {
	Day   string     `json:"day"`
	Date  string     `json:"date"`
	Meals []MealSlot `json:"meals"`
}

// Draft is a weekly plan under construction. A full draft has exactly
// seven days; a fallback draft has three.
type Draft struct {
	WeekStart time.Time `json:"week_start"`
	WeekTheme string    `json:"week_theme,omitempty"`
	Days      []DaySlot `json:"days"`
}

// SlotCount returns the total number of meal slots across all days.
func (d *Draft) SlotCount() int {
	n := 0
	for _, day := range d.Days {
		n += len(day.Meals)
	}
	return n
}

// RecipeIDs returns every recipe id referenced by the draft, with repeats.
func (d *Draft) RecipeIDs() []string {
	var ids []string
	for _, day := range d.Days {
		for _, meal := range day.Meals {
			ids = append(ids, meal.RecipeID)
		}
	}
	return ids
}

// CheckComplete verifies the structural invariant: the expected number of
// days, every required meal type present on every day, 3-4 meals per day,
// and every referenced recipe present in the known set.
func (d *Draft) CheckComplete(expectDays int, known map[string]bool) error {
	if len(d.Days) != expectDays {
		return fmt.Errorf("expected %d days, got %d", expectDays, len(d.Days))
	}
	for i, day := range d.Days {
		if len(day.Meals) < 3 || len(day.Meals) > 4 {
			return fmt.Errorf("day %d has %d meals, want 3-4", i+1, len(day.Meals))
		}
		have := map[string]bool{}
		for _, meal := range day.Meals {
			have[meal.MealType] = true
			if !known[meal.RecipeID] {
				return fmt.Errorf("day %d references unknown recipe %q", i+1, meal.RecipeID)
			}
		}
		for _, required := range RequiredMealTypes {
			if !have[required] {
				return fmt.Errorf("day %d missing %s", i+1, required)
			}
		}
	}
	return nil
}
