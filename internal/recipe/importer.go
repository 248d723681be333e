package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutriplan/internal/llm"
	"nutriplan/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Importer fetches a recipe page, has the model extract a structured
// Record from it and saves the result.
type Importer struct {
	repo       *Repository
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// NewImporter creates a new Importer instance.
func NewImporter(repo *Repository, textGen llm.TextGenerator) *Importer {
	return &Importer{
		repo:    repo,
		textGen: textGen,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// ImportURL fetches the URL, extracts the recipe using the model, and saves it.
func (im *Importer) ImportURL(ctx context.Context, url string) (*Record, shared.AgentMeta, error) {
	start := time.Now()

	content, err := im.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": [{"name": "flour", "amount": 200, "unit": "g"}, ...],
  "servings": 4,
  "prep_time_minutes": 15,
  "cook_time_minutes": 30,
  "difficulty": "easy|medium|hard",
  "cuisine": "e.g. italian",
  "meal_types": ["breakfast"|"lunch"|"dinner"|"snack"],
  "tags": ["tag1", "tag2"]
}
Use numeric amounts and metric units where the page allows it. Do not include any other text in your response.

Page text:
%s
`, content)

	resp, err := im.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: "Importer", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return nil, meta, fmt.Errorf("recipe extraction failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(resp.Content), &rec); err != nil {
		return nil, meta, fmt.Errorf("failed to parse extraction response: %w. Response: %s", err, resp.Content)
	}
	if rec.Title == "" {
		return nil, meta, fmt.Errorf("extraction produced no title. Response: %s", resp.Content)
	}

	rec.ID = uuid.NewString()
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := im.repo.Save(ctx, rec); err != nil {
		return nil, meta, fmt.Errorf("failed to save imported recipe: %w", err)
	}

	log.Info().Str("recipe_id", rec.ID).Str("title", rec.Title).Str("url", url).Msg("recipe imported")
	return &rec, meta, nil
}

// fetchAndCleanHTML downloads the page and strips it down to readable text
// so the extraction prompt stays small.
func (im *Importer) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, iframe, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	// Large pages blow the prompt budget; the recipe is almost always early.
	const maxChars = 20000
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text, nil
}
