package selection

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"nutriplan/internal/llm"
	"nutriplan/internal/shared"
)

//go:embed scorer_prompt.md
var scorerPrompt string

// LLMScorer scores recipes with a text model. Output is parsed strictly at
// this boundary; anything malformed surfaces as ErrScorerUnavailable so the
// selector can degrade instead of trusting partial structure downstream.
type LLMScorer struct {
	textGen llm.TextGenerator
}

// NewLLMScorer creates a model-backed Scorer.
func NewLLMScorer(textGen llm.TextGenerator) *LLMScorer {
	return &LLMScorer{textGen: textGen}
}

type scorerPromptData struct {
	UserJSON    string
	RecipesJSON string
}

// Score implements Scorer.
func (s *LLMScorer) Score(ctx context.Context, recipes []RecipeSummary, user UserSummary) (map[string]ScoreEntry, shared.AgentMeta, error) {
	start := time.Now()

	prompt, err := buildScorerPrompt(recipes, user)
	if err != nil {
		return nil, shared.AgentMeta{AgentName: "Scorer"}, err
	}

	resp, err := s.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: "Scorer", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}

	entries := map[string]ScoreEntry{}
	if err := json.Unmarshal([]byte(resp.Content), &entries); err != nil {
		return nil, meta, fmt.Errorf("%w: failed to parse scorer response: %v. Response: %s",
			ErrScorerUnavailable, err, resp.Content)
	}

	return entries, meta, nil
}

func buildScorerPrompt(recipes []RecipeSummary, user UserSummary) (string, error) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	recipesJSON, err := json.Marshal(recipes)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("scorer").Parse(scorerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scorerPromptData{
		UserJSON:    string(userJSON),
		RecipesJSON: string(recipesJSON),
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
