// Package review is the thin contract around the external plan-quality
// reviewer. The review logic itself is external; this package owns the
// boundary parsing.
package review

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"nutriplan/internal/blueprint"
	"nutriplan/internal/llm"
	"nutriplan/internal/plan"
	"nutriplan/internal/shared"
)

//go:embed reviewer_prompt.md
var reviewerPrompt string

// ErrUnavailable signals the reviewer could not produce a usable rating.
// Recoverable: the controller degrades instead of failing the round.
var ErrUnavailable = errors.New("coherence reviewer unavailable")

// Review is the reviewer's verdict on one plan.
type Review struct {
	Rating   int    `json:"rating"` // 1-10
	Feedback string `json:"feedback"`
}

// Reviewer scores plan coherence with a text model.
type Reviewer struct {
	textGen llm.TextGenerator
}

// NewReviewer creates a Reviewer.
func NewReviewer(textGen llm.TextGenerator) *Reviewer {
	return &Reviewer{textGen: textGen}
}

// Review rates the plan 1-10 with feedback text. Ratings outside the scale
// are clamped at this boundary.
func (r *Reviewer) Review(ctx context.Context, draft *plan.Draft, bp *blueprint.Blueprint) (Review, shared.AgentMeta, error) {
	start := time.Now()

	prompt, err := buildReviewerPrompt(draft, bp)
	if err != nil {
		return Review{}, shared.AgentMeta{AgentName: "Reviewer"}, err
	}

	resp, err := r.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: "Reviewer", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return Review{}, meta, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var rev Review
	if err := json.Unmarshal([]byte(resp.Content), &rev); err != nil {
		return Review{}, meta, fmt.Errorf("%w: failed to parse review: %v. Response: %s",
			ErrUnavailable, err, resp.Content)
	}

	if rev.Rating < 1 {
		rev.Rating = 1
	}
	if rev.Rating > 10 {
		rev.Rating = 10
	}
	return rev, meta, nil
}

func buildReviewerPrompt(draft *plan.Draft, bp *blueprint.Blueprint) (string, error) {
	planJSON, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	userJSON, err := json.Marshal(struct {
		DietType string   `json:"diet_type"`
		Cuisines []string `json:"preferred_cuisines,omitempty"`
		Flavors  []string `json:"flavor_notes,omitempty"`
	}{bp.DietType, bp.Cuisines, bp.FlavorNotes})
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("reviewer").Parse(reviewerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"UserJSON": string(userJSON),
		"PlanJSON": string(planJSON),
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
