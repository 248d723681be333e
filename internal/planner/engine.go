// Package planner drives the multi-stage generation pipeline: candidate
// selection, assembly, nutrition validation and coherence review, under a
// bounded retry budget with a deterministic fallback once the budget is
// spent.
package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutriplan/internal/assembly"
	"nutriplan/internal/blueprint"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/plan"
	"nutriplan/internal/recipe"
	"nutriplan/internal/review"
	"nutriplan/internal/selection"
	"nutriplan/internal/shared"

	"github.com/rs/zerolog/log"
)

// Outcome is the caller-visible result class of one generation request.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
)

// Stage contracts, satisfied by the concrete components and by test fakes.
type candidateSelector interface {
	Select(ctx context.Context, bp *blueprint.Blueprint, prefs blueprint.Preferences) (selection.Result, error)
}

type planAssembler interface {
	Assemble(ctx context.Context, candidates []selection.Candidate, opts assembly.Options) (*plan.Draft, shared.AgentMeta, error)
}

type nutritionValidator interface {
	Validate(ctx context.Context, draft *plan.Draft, recipes map[string]recipe.Record, bp *blueprint.Blueprint) nutrition.ValidationResult
}

type coherenceReviewer interface {
	Review(ctx context.Context, draft *plan.Draft, bp *blueprint.Blueprint) (review.Review, shared.AgentMeta, error)
}

// Config bounds one engine instance.
type Config struct {
	MaxRetries         int           // full rounds before the circuit breaker trips (default 3)
	StageTimeout       time.Duration // per external stage; zero disables
	CoherenceThreshold int           // minimum acceptable rating (default 7)
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.CoherenceThreshold <= 0 {
		c.CoherenceThreshold = 7
	}
}

// Result is everything the caller gets back from one generation request.
// Usage is populated on every path, including failures.
type Result struct {
	Outcome         Outcome                      `json:"outcome"`
	Plan            *plan.Draft                  `json:"plan,omitempty"`
	Validation      *nutrition.ValidationResult  `json:"validation,omitempty"`
	CoherenceRating int                          `json:"coherence_rating,omitempty"`
	Usage           shared.Usage                 `json:"usage"`
	RetryCount      int                          `json:"retry_count"`
	FallbackReason  string                       `json:"fallback_reason,omitempty"`
	Notes           []string                     `json:"notes,omitempty"`
	Metas           []shared.AgentMeta           `json:"-"`
}

// Engine owns the generation state machine.
type Engine struct {
	selector  candidateSelector
	assembler planAssembler
	validator nutritionValidator
	reviewer  coherenceReviewer
	store     recipe.Store // fallback pool source
	cfg       Config
}

// NewEngine wires the pipeline stages into an engine.
func NewEngine(sel candidateSelector, asm planAssembler, val nutritionValidator, rev coherenceReviewer, store recipe.Store, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{selector: sel, assembler: asm, validator: val, reviewer: rev, store: store, cfg: cfg}
}

// GeneratePlan runs the full pipeline for one blueprint. The returned
// error is non-nil only for the hard failures: incomplete blueprint, no
// eligible recipes, caller cancellation, or an empty fallback pool.
func (e *Engine) GeneratePlan(ctx context.Context, bp *blueprint.Blueprint, prefs blueprint.Preferences) (*Result, error) {
	res := &Result{Outcome: OutcomeFailed}
	state := StateValidatingInput

	if err := bp.Validate(); err != nil {
		state = transition(state, EvBlueprintInvalid)
		log.Warn().Err(err).Str("state", state.String()).Msg("blueprint rejected")
		return res, err
	}
	state = transition(state, EvBlueprintValid)

	weekStart := prefs.WeekStart
	if weekStart.IsZero() {
		weekStart = nextMonday(time.Now())
	}

	var (
		candidates  []selection.Candidate
		recipesByID map[string]recipe.Record
		draft       *plan.Draft
		opts        assembly.Options
		repairUsed  bool
		improveUsed bool
		lastReason  string
	)

	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch state {
		case StateSelectingCandidates:
			// A fresh round resets the per-round repair/improve budget.
			repairUsed, improveUsed = false, false
			opts = assembly.Options{
				WeekStart:     weekStart,
				HouseholdSize: bp.HouseholdSize,
				IncludeSnacks: prefs.IncludeSnacks,
			}

			stageCtx, cancel := e.stageContext(ctx)
			selRes, err := e.selector.Select(stageCtx, bp, prefs)
			cancel()
			e.account(res, selRes.Meta)

			switch {
			case errors.Is(err, selection.ErrNoEligibleRecipes):
				state = transition(state, EvSelectionFatal)
				return res, err
			case err != nil:
				lastReason = stageReason(err, reasonSelectionFailed)
				log.Warn().Err(err).Msg("selection stage failed")
				state = transition(state, EvStageFailed)
			default:
				candidates = selRes.Candidates
				recipesByID = make(map[string]recipe.Record, len(candidates))
				for _, c := range candidates {
					recipesByID[c.Recipe.ID] = c.Recipe
				}
				if selRes.Degraded {
					res.Notes = append(res.Notes, "personalization scoring degraded to intrinsic ratings")
				}
				state = transition(state, EvCandidatesSelected)
			}

		case StateAssembling, StateImproving:
			stageCtx, cancel := e.stageContext(ctx)
			var meta shared.AgentMeta
			var err error
			draft, meta, err = e.assembler.Assemble(stageCtx, candidates, opts)
			cancel()
			e.account(res, meta)

			if err != nil {
				lastReason = stageReason(err, reasonAssemblyFailed)
				log.Warn().Err(err).Str("state", state.String()).Msg("assembly stage failed")
				state = transition(state, EvStageFailed)
				break
			}
			state = transition(state, EvDraftAssembled)

		case StateValidatingNutrition:
			vr := e.validator.Validate(ctx, draft, recipesByID, bp)
			res.Validation = &vr

			switch {
			case vr.IsValid:
				state = transition(state, EvNutritionPassed)
			case !repairUsed:
				// One targeted repair per round, cheaper than a full retry.
				repairUsed = true
				opts.RepairHint = strings.Join(vr.Suggestions, "; ")
				log.Info().Strs("suggestions", vr.Suggestions).Msg("attempting nutrition repair")
				state = transition(state, EvNutritionRepairable)
			default:
				lastReason = reasonNutritionExceeded
				state = transition(state, EvNutritionFailed)
			}

		case StateReviewingCoherence:
			stageCtx, cancel := e.stageContext(ctx)
			rev, meta, err := e.reviewer.Review(stageCtx, draft, bp)
			cancel()
			e.account(res, meta)

			switch {
			case err != nil:
				// Recoverable by contract: an unreachable reviewer must not
				// abort the round.
				log.Warn().Err(err).Msg("coherence review unavailable, accepting without rating")
				res.Notes = append(res.Notes, "coherence review unavailable")
				state = transition(state, EvCoherencePassed)
			case rev.Rating >= e.cfg.CoherenceThreshold:
				res.CoherenceRating = rev.Rating
				state = transition(state, EvCoherencePassed)
			case !improveUsed:
				improveUsed = true
				res.CoherenceRating = rev.Rating
				opts.FeedbackBias = rev.Feedback
				opts.RepairHint = ""
				log.Info().Int("rating", rev.Rating).Msg("attempting coherence improvement")
				state = transition(state, EvCoherenceImprovable)
			default:
				res.CoherenceRating = rev.Rating
				lastReason = reasonCoherenceTooLow
				state = transition(state, EvCoherenceFailed)
			}

		case StateRoundFailed:
			res.RetryCount++
			if res.RetryCount >= e.cfg.MaxRetries {
				log.Warn().Int("retries", res.RetryCount).Msg("retry budget exhausted, tripping circuit breaker")
				state = transition(state, EvRetriesExhausted)
			} else {
				state = transition(state, EvRetry)
			}
		}
	}

	switch state {
	case StateAccepted:
		res.Outcome = OutcomeAccepted
		res.Plan = draft
		log.Info().Int("retries", res.RetryCount).Msg("plan accepted")
		return res, nil

	case StateFallback:
		if lastReason == "" {
			lastReason = reasonRetriesExhausted
		}
		fb, err := e.buildFallback(ctx, bp, weekStart)
		if err != nil {
			return res, err
		}
		res.Outcome = OutcomeFallback
		res.Plan = fb
		res.FallbackReason = lastReason
		log.Warn().Str("reason", lastReason).Msg("returning fallback plan")
		return res, nil

	default:
		return res, errors.New("generation terminated without outcome")
	}
}

// account folds one stage call's metadata into the request totals. Calls
// that never happened (zero usage, zero latency) are skipped.
func (e *Engine) account(res *Result, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	res.Usage.Add(meta)
	res.Metas = append(res.Metas, meta)
}

func (e *Engine) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.StageTimeout)
}

func stageReason(err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return reasonStageTimedOut
	}
	return fallback
}

func nextMonday(now time.Time) time.Time {
	day := now
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}
