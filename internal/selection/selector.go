package selection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"nutriplan/internal/blueprint"
	"nutriplan/internal/recipe"
	"nutriplan/internal/shared"

	"github.com/rs/zerolog/log"
)

// Scoring weights and multipliers.
const (
	weightIntrinsic       = 0.3
	weightPersonalization = 0.4
	bonusLoved            = 1.3
	bonusPremium          = 1.1
	penaltySwapped        = 0.7

	neutralScore     = 50
	recentRatingSpan = 10
)

// Terms that violate a diet type when found in tags or ingredient names.
var dietExclusions = map[string][]string{
	"vegan":       {"meat", "beef", "pork", "chicken", "fish", "seafood", "dairy", "milk", "cheese", "butter", "egg", "honey"},
	"vegetarian":  {"meat", "beef", "pork", "chicken", "fish", "seafood"},
	"pescatarian": {"meat", "beef", "pork", "chicken"},
}

// Config bounds the selector's working set and diversity pass.
type Config struct {
	TargetCount        int     // candidates to select (default 30)
	WorkingSetCap      int     // hard-filter survivors submitted to the scorer (default 50)
	RelaxAfterFraction float64 // share of target after which diversity caps relax (default 0.5)
}

func (c *Config) applyDefaults() {
	if c.TargetCount <= 0 {
		c.TargetCount = 30
	}
	if c.WorkingSetCap <= 0 {
		c.WorkingSetCap = 50
	}
	if c.RelaxAfterFraction <= 0 || c.RelaxAfterFraction > 1 {
		c.RelaxAfterFraction = 0.5
	}
}

// Result carries the selected candidates plus how the selection went.
type Result struct {
	Candidates []Candidate
	Degraded   bool // true when the scorer was unavailable
	Meta       shared.AgentMeta
}

// Selector filters, scores and diversifies the recipe corpus.
type Selector struct {
	store  recipe.Store
	scorer Scorer
	cfg    Config
}

// NewSelector creates a Selector.
func NewSelector(store recipe.Store, scorer Scorer, cfg Config) *Selector {
	cfg.applyDefaults()
	return &Selector{store: store, scorer: scorer, cfg: cfg}
}

// Select runs hard filtering, external scoring, final-score combination and
// the diversity-constrained subset pass.
func (s *Selector) Select(ctx context.Context, bp *blueprint.Blueprint, prefs blueprint.Preferences) (Result, error) {
	working, err := s.hardFilter(ctx, bp, prefs)
	if err != nil {
		return Result{}, err
	}
	if len(working) == 0 {
		return Result{}, ErrNoEligibleRecipes
	}

	candidates, degraded, meta := s.score(ctx, working, bp)

	for i := range candidates {
		s.combineScores(&candidates[i], bp)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})

	selected := s.diversityPass(candidates)

	log.Info().Int("working_set", len(working)).Int("selected", len(selected)).
		Bool("degraded", degraded).Msg("candidate selection complete")

	return Result{Candidates: selected, Degraded: degraded, Meta: meta}, nil
}

// hardFilter excludes recipes violating any hard constraint and caps the
// survivors to the working-set bound, keeping the best-rated.
func (s *Selector) hardFilter(ctx context.Context, bp *blueprint.Blueprint, prefs blueprint.Preferences) ([]recipe.Record, error) {
	all, err := s.store.List(ctx, recipe.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	excluded := map[string]bool{}
	for _, id := range bp.ExcludeRecipes {
		excluded[id] = true
	}
	for _, id := range prefs.AvoidRecipeIDs {
		excluded[id] = true
	}

	var working []recipe.Record
	for _, rec := range all {
		if excluded[rec.ID] {
			continue
		}
		if rec.Premium && !bp.Premium {
			continue
		}
		if bp.MaxPrepTime > 0 && rec.TotalTime() > bp.MaxPrepTime {
			continue
		}
		if violatesDiet(rec, bp.DietType) {
			continue
		}
		if containsAnyTerm(rec, bp.Allergens) || containsAnyTerm(rec, bp.Dislikes) {
			continue
		}
		working = append(working, rec)
	}

	// Bound downstream scoring cost: keep the top-rated survivors.
	sort.SliceStable(working, func(i, j int) bool { return working[i].Rating > working[j].Rating })
	if len(working) > s.cfg.WorkingSetCap {
		working = working[:s.cfg.WorkingSetCap]
	}
	return working, nil
}

// score submits the working set to the external scorer and maps entries
// onto candidates. Missing entries get a neutral score; a failed scorer
// degrades the whole pass instead of failing it.
func (s *Selector) score(ctx context.Context, working []recipe.Record, bp *blueprint.Blueprint) ([]Candidate, bool, shared.AgentMeta) {
	summaries := make([]RecipeSummary, len(working))
	for i, rec := range working {
		summaries[i] = RecipeSummary{
			ID:        rec.ID,
			Title:     rec.Title,
			Cuisine:   rec.Cuisine,
			MealTypes: rec.MealTypes,
			Tags:      rec.Tags,
			TotalTime: rec.TotalTime(),
			Rating:    rec.Rating,
		}
	}
	user := UserSummary{
		DietType:    bp.DietType,
		Allergens:   bp.Allergens,
		Dislikes:    bp.Dislikes,
		Cuisines:    bp.Cuisines,
		FlavorNotes: bp.FlavorNotes,
		SkillLevel:  bp.SkillLevel,
	}

	entries, meta, err := s.scorer.Score(ctx, summaries, user)
	degraded := err != nil
	if degraded {
		log.Warn().Err(err).Msg("scorer unavailable, falling back to intrinsic-only scoring")
	}

	candidates := make([]Candidate, len(working))
	for i, rec := range working {
		c := Candidate{
			Recipe:               rec,
			BaseScore:            clamp(rec.Rating/5*100, 0, 100),
			PersonalizationScore: neutralScore,
		}
		switch {
		case degraded:
			c.PenaltyReasons = append(c.PenaltyReasons, "scorer unavailable")
		default:
			if entry, ok := entries[rec.ID]; ok {
				c.PersonalizationScore = clamp(entry.Score, 0, 100)
				c.MatchReasons = entry.MatchReasons
				c.PenaltyReasons = entry.PenaltyReasons
			} else {
				c.PenaltyReasons = append(c.PenaltyReasons, "no score available")
			}
		}
		candidates[i] = c
	}
	return candidates, degraded, meta
}

// combineScores computes the weighted final score with history multipliers.
func (s *Selector) combineScores(c *Candidate, bp *blueprint.Blueprint) {
	score := weightIntrinsic*c.BaseScore + weightPersonalization*c.PersonalizationScore

	if bp.LovedRecently(c.Recipe.ID, recentRatingSpan) {
		score *= bonusLoved
		c.MatchReasons = append(c.MatchReasons, "recently loved")
	}
	if bp.Premium {
		score *= bonusPremium
	}
	if bp.SwappedRecently(c.Recipe.ID) {
		score *= penaltySwapped
		c.PenaltyReasons = append(c.PenaltyReasons, "recently swapped away")
	}

	c.FinalScore = clamp(score, 0, 100)
}

// diversityPass accepts candidates in score order while enforcing soft
// per-cuisine and per-meal-type caps. Once at least half the target has
// been accepted the caps relax, so scarce diversity cannot under-fill the
// selection.
func (s *Selector) diversityPass(sorted []Candidate) []Candidate {
	target := s.cfg.TargetCount
	cuisineCap := int(math.Ceil(float64(target) / 5))
	mealTypeCap := int(math.Ceil(float64(target) / 3))
	relaxPoint := int(math.Ceil(float64(target) * s.cfg.RelaxAfterFraction))

	perCuisine := map[string]int{}
	perMealType := map[string]int{}

	accepted := make([]Candidate, 0, target)
	var skipped []Candidate

	for _, c := range sorted {
		if len(accepted) >= target {
			break
		}
		cuisine := strings.ToLower(c.Recipe.Cuisine)
		mealType := primaryMealType(c.Recipe)

		if perCuisine[cuisine] >= cuisineCap || perMealType[mealType] >= mealTypeCap {
			skipped = append(skipped, c)
			continue
		}
		perCuisine[cuisine]++
		perMealType[mealType]++
		accepted = append(accepted, c)
	}

	// Relaxation: only once enough of the target is covered, backfill from
	// the skipped candidates ignoring the caps.
	if len(accepted) >= relaxPoint {
		for _, c := range skipped {
			if len(accepted) >= target {
				break
			}
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func primaryMealType(rec recipe.Record) string {
	if len(rec.MealTypes) > 0 {
		return rec.MealTypes[0]
	}
	return "unspecified"
}

func violatesDiet(rec recipe.Record, dietType string) bool {
	terms, ok := dietExclusions[strings.ToLower(dietType)]
	if !ok {
		return false
	}
	return containsAnyTerm(rec, terms)
}

// containsAnyTerm checks tags and ingredient names for any of the terms,
// case-insensitively.
func containsAnyTerm(rec recipe.Record, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		needle := strings.ToLower(strings.TrimSpace(term))
		if needle == "" {
			continue
		}
		for _, tag := range rec.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		for _, ing := range rec.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), needle) {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
