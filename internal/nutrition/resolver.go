package nutrition

import (
	"context"
	"errors"
	"math"
	"strings"

	"nutriplan/internal/recipe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Tier identifies which resolution strategy produced a Totals value. It is
// reported for transparency; validation decisions never depend on it.
type Tier int

const (
	TierNone Tier = iota
	TierDeclared
	TierComputed
	TierEstimated
)

func (t Tier) String() string {
	switch t {
	case TierDeclared:
		return "declared"
	case TierComputed:
		return "computed"
	case TierEstimated:
		return "estimated"
	default:
		return "none"
	}
}

// minorSeasonings are filtered out of the computed tier: their mass is
// trivial and fuzzy-matching them produces junk.
var minorSeasonings = map[string]bool{
	"salt":            true,
	"pepper":          true,
	"black pepper":    true,
	"white pepper":    true,
	"paprika":         true,
	"cumin":           true,
	"oregano":         true,
	"basil":           true,
	"thyme":           true,
	"rosemary":        true,
	"cinnamon":        true,
	"nutmeg":          true,
	"chili flakes":    true,
	"water":           true,
	"vanilla extract": true,
	"almond extract":  true,
}

const lookupConcurrency = 8

// Resolver resolves a recipe's nutrient content using a tiered strategy:
// trusted declared data, then per-ingredient composition lookup, then a
// keyword heuristic. Every tier returns a value or passes to the next; the
// chain as a whole cannot fail.
type Resolver struct {
	lookup CompositionLookup
}

// NewResolver creates a Resolver backed by the given composition lookup.
func NewResolver(lookup CompositionLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the nutrient totals for one recipe at the given serving
// multiplier, and the tier that produced them.
func (r *Resolver) Resolve(ctx context.Context, rec recipe.Record, servingMultiplier float64) (Totals, Tier, error) {
	if servingMultiplier <= 0 {
		servingMultiplier = 1
	}
	servings := rec.Servings
	if servings <= 0 {
		servings = 1
	}
	scale := servingMultiplier / float64(servings)

	if totals, ok := resolveDeclared(rec, scale); ok {
		return totals, TierDeclared, nil
	}

	totals, ok, err := r.resolveComputed(ctx, rec, scale)
	if err != nil {
		return Totals{}, TierNone, err
	}
	if ok {
		return totals, TierComputed, nil
	}

	return resolveEstimated(rec, servingMultiplier), TierEstimated, nil
}

// resolveDeclared trusts the recipe's own nutrient data when it looks
// reliable: positive calories and no negative macros.
func resolveDeclared(rec recipe.Record, scale float64) (Totals, bool) {
	n := rec.Nutrition
	if n == nil || n.Calories <= 0 || n.Protein < 0 || n.Fat < 0 || n.Carbs < 0 {
		return Totals{}, false
	}
	perRecipe := Totals{
		Calories: n.Calories,
		Protein:  n.Protein,
		Fat:      n.Fat,
		Carbs:    n.Carbs,
		Fiber:    n.Fiber,
	}
	// Declared values cover the whole recipe; scale is multiplier/servings.
	return perRecipe.Scale(scale), true
}

// resolveComputed sums composition-database values across non-trivial
// ingredients. Lookups are independent, so they fan out concurrently;
// results land in an indexed slice so completion order cannot change the
// sum.
func (r *Resolver) resolveComputed(ctx context.Context, rec recipe.Record, scale float64) (Totals, bool, error) {
	type job struct {
		name  string
		grams float64
	}
	var jobs []job
	for _, ing := range rec.Ingredients {
		if ing.Amount <= 0 {
			continue
		}
		if minorSeasonings[strings.ToLower(strings.TrimSpace(ing.Name))] {
			continue
		}
		jobs = append(jobs, job{name: ing.Name, grams: toGrams(ing.Amount, ing.Unit)})
	}
	if len(jobs) == 0 {
		return Totals{}, false, nil
	}

	results := make([]*Totals, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			per100, err := r.lookup.Lookup(gctx, j.name)
			if err != nil {
				if errors.Is(err, ErrIngredientNotFound) || errors.Is(err, ErrLookupUnavailable) {
					log.Debug().Str("ingredient", j.name).Err(err).Msg("ingredient not resolved")
					return nil
				}
				return err
			}
			f := j.grams / 100
			results[i] = &Totals{
				Calories: int(math.Round(per100.Calories * f)),
				Protein:  round1(per100.Protein * f),
				Fat:      round1(per100.Fat * f),
				Carbs:    round1(per100.Carbs * f),
				Fiber:    round1(per100.Fiber * f),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Totals{}, false, err
	}

	var sum Totals
	resolved := 0
	for _, res := range results {
		if res != nil {
			sum = sum.Add(*res)
			resolved++
		}
	}
	if resolved == 0 {
		return Totals{}, false, nil
	}

	return sum.Scale(scale), true, nil
}

// Per-serving heuristic profiles for the last-resort tier.
var (
	profileLowCal      = Totals{Calories: 320, Protein: 12, Fat: 14, Carbs: 28, Fiber: 6}
	profileHighCarb    = Totals{Calories: 650, Protein: 18, Fat: 15, Carbs: 95, Fiber: 5}
	profileHighProtein = Totals{Calories: 550, Protein: 45, Fat: 25, Carbs: 20, Fiber: 2}
	profileBaseline    = Totals{Calories: 500, Protein: 25, Fat: 20, Carbs: 50, Fiber: 4}
)

// resolveEstimated guesses a per-serving profile from title keywords.
func resolveEstimated(rec recipe.Record, servingMultiplier float64) Totals {
	title := strings.ToLower(rec.Title)
	profile := profileBaseline
	switch {
	case strings.Contains(title, "salad") || strings.Contains(title, "soup"):
		profile = profileLowCal
	case strings.Contains(title, "pasta") || strings.Contains(title, "rice") || strings.Contains(title, "noodle"):
		profile = profileHighCarb
	case strings.Contains(title, "chicken") || strings.Contains(title, "beef") || strings.Contains(title, "steak"):
		profile = profileHighProtein
	}
	return profile.Scale(servingMultiplier)
}
