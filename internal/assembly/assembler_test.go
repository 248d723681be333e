package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"nutriplan/internal/llm"
	"nutriplan/internal/plan"
	"nutriplan/internal/recipe"
	"nutriplan/internal/selection"
	"nutriplan/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextGenerator struct {
	response string
	err      error
	prompts  []string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "gemini-1.5-flash"},
	}, nil
}

func candidateSet() []selection.Candidate {
	mk := func(id, title string, mealTypes ...string) selection.Candidate {
		return selection.Candidate{Recipe: recipe.Record{ID: id, Title: title, MealTypes: mealTypes}}
	}
	return []selection.Candidate{
		mk("b1", "Overnight Oats", "breakfast"),
		mk("b2", "Shakshuka", "breakfast"),
		mk("l1", "Chicken Caesar", "lunch"),
		mk("l2", "Minestrone", "lunch"),
		mk("d1", "Salmon Teriyaki", "dinner"),
		mk("d2", "Mushroom Risotto", "dinner"),
	}
}

// fullWeekJSON builds a syntactically valid seven-day response cycling the
// given recipe ids per meal type.
func fullWeekJSON() string {
	type meal struct {
		MealType string  `json:"meal_type"`
		RecipeID string  `json:"recipe_id"`
		Servings float64 `json:"servings"`
	}
	type day struct {
		Day   string `json:"day"`
		Date  string `json:"date"`
		Meals []meal `json:"meals"`
	}
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	var days []day
	for i, name := range names {
		days = append(days, day{
			Day: name,
			Meals: []meal{
				{MealType: "breakfast", RecipeID: fmt.Sprintf("b%d", i%2+1), Servings: 2},
				{MealType: "lunch", RecipeID: fmt.Sprintf("l%d", i%2+1), Servings: 2},
				{MealType: "dinner", RecipeID: fmt.Sprintf("d%d", i%2+1), Servings: 2},
			},
		})
	}
	raw, _ := json.Marshal(map[string]any{"week_theme": "Comfort Classics", "days": days})
	return string(raw)
}

func TestAssembleValidDraft(t *testing.T) {
	gen := &mockTextGenerator{response: fullWeekJSON()}
	a := NewAssembler(gen)

	weekStart := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	draft, meta, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     weekStart,
		HouseholdSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Assembler", meta.AgentName)
	assert.Equal(t, 100, meta.Usage.PromptTokens)

	assert.Equal(t, "Comfort Classics", draft.WeekTheme)
	require.Len(t, draft.Days, 7)
	assert.Equal(t, 21, draft.SlotCount())
	// Dates default from the week start when the model omits them.
	assert.Equal(t, "2026-09-07", draft.Days[0].Date)
	assert.Equal(t, "2026-09-13", draft.Days[6].Date)
}

func TestAssembleUnparseableResponse(t *testing.T) {
	gen := &mockTextGenerator{response: "Here is your plan! Enjoy."}
	a := NewAssembler(gen)

	_, _, err := a.Assemble(context.Background(), candidateSet(), Options{WeekStart: time.Now()})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestAssembleRepairsHallucinatedID(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullWeekJSON()), &raw))
	days := raw["days"].([]any)
	meals := days[0].(map[string]any)["meals"].([]any)
	meals[2].(map[string]any)["recipe_id"] = "made-up-id"
	fixed, _ := json.Marshal(raw)

	gen := &mockTextGenerator{response: string(fixed)}
	a := NewAssembler(gen)

	draft, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 2,
	})
	require.NoError(t, err)

	for _, id := range draft.RecipeIDs() {
		assert.NotEqual(t, "made-up-id", id)
	}
	// The replacement still fills the dinner slot.
	assert.True(t, hasMealType(draft.Days[0], plan.MealDinner))
}

func TestAssembleFillsMissingRequiredSlot(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullWeekJSON()), &raw))
	days := raw["days"].([]any)
	day0 := days[0].(map[string]any)
	day0["meals"] = day0["meals"].([]any)[:2] // drop dinner
	fixed, _ := json.Marshal(raw)

	gen := &mockTextGenerator{response: string(fixed)}
	a := NewAssembler(gen)

	draft, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, draft.Days[0].Meals, 3)
	assert.True(t, hasMealType(draft.Days[0], plan.MealDinner))
}

func TestAssembleDropsUnknownMealType(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullWeekJSON()), &raw))
	days := raw["days"].([]any)
	meals := days[2].(map[string]any)["meals"].([]any)
	meals = append(meals, map[string]any{"meal_type": "brunch", "recipe_id": "l1", "servings": 2})
	days[2].(map[string]any)["meals"] = meals
	fixed, _ := json.Marshal(raw)

	gen := &mockTextGenerator{response: string(fixed)}
	a := NewAssembler(gen)

	draft, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, draft.Days[2].Meals, 3)
}

func TestAssembleDefaultsServingsToHousehold(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullWeekJSON()), &raw))
	days := raw["days"].([]any)
	meals := days[0].(map[string]any)["meals"].([]any)
	meals[0].(map[string]any)["servings"] = 0
	fixed, _ := json.Marshal(raw)

	gen := &mockTextGenerator{response: string(fixed)}
	a := NewAssembler(gen)

	draft, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 4,
	})
	require.NoError(t, err)
	assert.InDelta(t, 4, draft.Days[0].Meals[0].Servings, 0.01)
}

func TestAssembleWrongDayCountFails(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullWeekJSON()), &raw))
	raw["days"] = raw["days"].([]any)[:5]
	fixed, _ := json.Marshal(raw)

	gen := &mockTextGenerator{response: string(fixed)}
	a := NewAssembler(gen)

	_, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 2,
	})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestAssemblePromptCarriesRepairHint(t *testing.T) {
	gen := &mockTextGenerator{response: fullWeekJSON()}
	a := NewAssembler(gen)

	_, _, err := a.Assemble(context.Background(), candidateSet(), Options{
		WeekStart:     time.Now(),
		HouseholdSize: 2,
		RepairHint:    "reduce fat intake (+18.2% vs target)",
	})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "reduce fat intake")
}
