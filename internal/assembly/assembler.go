// Package assembly turns a candidate set into a structurally valid weekly
// plan draft. Slot-filling intelligence is delegated to a generative
// service; this package owns validating and repairing what comes back.
package assembly

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"nutriplan/internal/llm"
	"nutriplan/internal/plan"
	"nutriplan/internal/selection"
	"nutriplan/internal/shared"

	"github.com/rs/zerolog/log"
)

//go:embed assembler_prompt.md
var assemblerPrompt string

// ErrStructural means the generative service returned a draft that could
// not be validated or repaired. The controller retries the round.
var ErrStructural = errors.New("assembly output failed structural validation")

const planDays = 7

// Options bias one assembly pass.
type Options struct {
	WeekStart     time.Time
	HouseholdSize int
	IncludeSnacks bool
	RepairHint    string // nutrition repair: adjusted weighting instruction
	FeedbackBias  string // reviewer feedback steering re-assembly
}

// Assembler drives the generative slot-filling service and guards its
// output.
type Assembler struct {
	textGen llm.TextGenerator
}

// NewAssembler creates an Assembler.
func NewAssembler(textGen llm.TextGenerator) *Assembler {
	return &Assembler{textGen: textGen}
}

// Boundary shape for the generative service's response. Parsed strictly
// here; nothing downstream touches raw fields.
type rawDraft struct {
	WeekTheme string `json:"week_theme"`
	Days      []struct {
		Day   string `json:"day"`
		Date  string `json:"date"`
		Meals []struct {
			MealType string  `json:"meal_type"`
			RecipeID string  `json:"recipe_id"`
			Servings float64 `json:"servings"`
		} `json:"meals"`
	} `json:"days"`
}

// Assemble requests a draft and validates or repairs it. A draft that
// cannot be repaired is ErrStructural, never a silent partial plan.
func (a *Assembler) Assemble(ctx context.Context, candidates []selection.Candidate, opts Options) (*plan.Draft, shared.AgentMeta, error) {
	start := time.Now()

	prompt, err := buildAssemblerPrompt(candidates, opts)
	if err != nil {
		return nil, shared.AgentMeta{AgentName: "Assembler"}, err
	}

	resp, err := a.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: "Assembler", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return nil, meta, fmt.Errorf("assembly generation failed: %w", err)
	}

	var raw rawDraft
	if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
		return nil, meta, fmt.Errorf("%w: unparseable response: %v. Response: %s", ErrStructural, err, resp.Content)
	}

	draft := a.toDraft(raw, opts)
	if err := a.repair(draft, candidates, opts); err != nil {
		return nil, meta, err
	}

	known := knownIDs(candidates)
	if err := draft.CheckComplete(planDays, known); err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrStructural, err)
	}

	return draft, meta, nil
}

func (a *Assembler) toDraft(raw rawDraft, opts Options) *plan.Draft {
	draft := &plan.Draft{WeekStart: opts.WeekStart, WeekTheme: raw.WeekTheme}
	for i, d := range raw.Days {
		day := plan.DaySlot{Day: d.Day, Date: d.Date}
		if day.Date == "" {
			day.Date = opts.WeekStart.AddDate(0, 0, i).Format("2006-01-02")
		}
		for _, m := range d.Meals {
			day.Meals = append(day.Meals, plan.MealSlot{
				MealType: m.MealType,
				RecipeID: m.RecipeID,
				Servings: m.Servings,
			})
		}
		draft.Days = append(draft.Days, day)
	}
	return draft
}

// repair fixes what it safely can: default servings, drop unknown meal
// types, replace unknown recipe ids and fill missing required slots from
// the best unused candidates. Days cannot be invented, so a wrong day
// count stays an error for CheckComplete.
func (a *Assembler) repair(draft *plan.Draft, candidates []selection.Candidate, opts Options) error {
	known := knownIDs(candidates)
	validTypes := map[string]bool{
		plan.MealBreakfast: true, plan.MealLunch: true, plan.MealDinner: true, plan.MealSnack: true,
	}
	servings := float64(opts.HouseholdSize)
	if servings <= 0 {
		servings = 1
	}

	for di := range draft.Days {
		day := &draft.Days[di]

		kept := day.Meals[:0]
		for _, meal := range day.Meals {
			if !validTypes[meal.MealType] {
				log.Warn().Str("meal_type", meal.MealType).Msg("dropping meal slot with unknown type")
				continue
			}
			if meal.Servings <= 0 {
				meal.Servings = servings
			}
			if !known[meal.RecipeID] {
				replacement := bestForMealType(candidates, meal.MealType, usedIDs(*day))
				if replacement == "" {
					return fmt.Errorf("%w: unknown recipe %q and no replacement for %s", ErrStructural, meal.RecipeID, meal.MealType)
				}
				log.Warn().Str("recipe_id", meal.RecipeID).Str("replacement", replacement).
					Msg("replacing hallucinated recipe id")
				meal.RecipeID = replacement
			}
			kept = append(kept, meal)
		}
		day.Meals = kept

		for _, required := range plan.RequiredMealTypes {
			if hasMealType(*day, required) {
				continue
			}
			id := bestForMealType(candidates, required, usedIDs(*day))
			if id == "" {
				return fmt.Errorf("%w: no candidate can fill missing %s", ErrStructural, required)
			}
			day.Meals = append(day.Meals, plan.MealSlot{MealType: required, RecipeID: id, Servings: servings})
		}
	}
	return nil
}

func buildAssemblerPrompt(candidates []selection.Candidate, opts Options) (string, error) {
	type candidateSummary struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Cuisine    string   `json:"cuisine"`
		MealTypes  []string `json:"meal_types"`
		FinalScore float64  `json:"final_score"`
	}
	summaries := make([]candidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = candidateSummary{
			ID:         c.Recipe.ID,
			Title:      c.Recipe.Title,
			Cuisine:    c.Recipe.Cuisine,
			MealTypes:  c.Recipe.MealTypes,
			FinalScore: c.FinalScore,
		}
	}
	candidatesJSON, err := json.Marshal(summaries)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("assembler").Parse(assemblerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{
		"WeekStart":      opts.WeekStart.Format("2006-01-02"),
		"HouseholdSize":  opts.HouseholdSize,
		"IncludeSnacks":  opts.IncludeSnacks,
		"RepairHint":     opts.RepairHint,
		"FeedbackBias":   opts.FeedbackBias,
		"CandidatesJSON": string(candidatesJSON),
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func knownIDs(candidates []selection.Candidate) map[string]bool {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.Recipe.ID] = true
	}
	return known
}

func usedIDs(day plan.DaySlot) map[string]bool {
	used := map[string]bool{}
	for _, meal := range day.Meals {
		used[meal.RecipeID] = true
	}
	return used
}

func hasMealType(day plan.DaySlot, mealType string) bool {
	for _, meal := range day.Meals {
		if meal.MealType == mealType {
			return true
		}
	}
	return false
}

// bestForMealType returns the highest-scored candidate tagged for the meal
// type and not already used on the day. Candidates arrive score-sorted
// from selection.
func bestForMealType(candidates []selection.Candidate, mealType string, used map[string]bool) string {
	for _, c := range candidates {
		if used[c.Recipe.ID] {
			continue
		}
		if c.Recipe.HasMealType(mealType) {
			return c.Recipe.ID
		}
	}
	// Fall back to any unused candidate rather than leaving a hole.
	for _, c := range candidates {
		if !used[c.Recipe.ID] {
			return c.Recipe.ID
		}
	}
	return ""
}
