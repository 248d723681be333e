package recipe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutriplan/internal/llm"
	"nutriplan/internal/recipe"
	"nutriplan/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextGenerator struct {
	response   string
	lastPrompt string
	err        error
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 400, CompletionTokens: 120, Model: "gemini-1.5-flash"},
	}, nil
}

const recipePage = `<html>
<head><title>Best Banana Bread</title><script>track();</script></head>
<body>
<nav>Home | Recipes</nav>
<h1>Best Banana Bread</h1>
<p>Mash 3 bananas, mix with 200 g flour and 100 g sugar. Bake 60 minutes.</p>
<footer>All rights reserved</footer>
</body></html>`

func TestImportURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipePage))
	}))
	defer srv.Close()

	gen := &mockTextGenerator{response: `{
		"title": "Best Banana Bread",
		"ingredients": [
			{"name": "banana", "amount": 350, "unit": "g"},
			{"name": "flour", "amount": 200, "unit": "g"},
			{"name": "sugar", "amount": 100, "unit": "g"}
		],
		"servings": 8,
		"prep_time_minutes": 15,
		"cook_time_minutes": 60,
		"difficulty": "easy",
		"cuisine": "american",
		"meal_types": ["breakfast", "snack"],
		"tags": ["baking"]
	}`}
	repo := testRepo(t)
	importer := recipe.NewImporter(repo, gen)

	rec, meta, err := importer.ImportURL(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Best Banana Bread", rec.Title)
	assert.Len(t, rec.Ingredients, 3)
	assert.Equal(t, 8, rec.Servings)
	assert.Equal(t, "Importer", meta.AgentName)
	assert.Equal(t, 400, meta.Usage.PromptTokens)

	// Boilerplate is stripped before the page text reaches the prompt.
	assert.Contains(t, gen.lastPrompt, "Mash 3 bananas")
	assert.NotContains(t, gen.lastPrompt, "track();")
	assert.NotContains(t, gen.lastPrompt, "All rights reserved")

	// The imported recipe is persisted.
	saved, err := repo.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, rec.Title, saved.Title)
}

func TestImportURLRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipePage))
	}))
	defer srv.Close()

	gen := &mockTextGenerator{response: "Sure! Here is the recipe you asked for."}
	importer := recipe.NewImporter(testRepo(t), gen)

	_, _, err := importer.ImportURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse"))
}

func TestImportURLFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	importer := recipe.NewImporter(testRepo(t), &mockTextGenerator{})
	_, _, err := importer.ImportURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestImportURLRequiresTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipePage))
	}))
	defer srv.Close()

	gen := &mockTextGenerator{response: `{"servings": 4}`}
	importer := recipe.NewImporter(testRepo(t), gen)

	_, _, err := importer.ImportURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no title")
}
