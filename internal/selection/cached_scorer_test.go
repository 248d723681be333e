package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedScorerHitSkipsInner(t *testing.T) {
	inner := &stubScorer{entries: map[string]ScoreEntry{"r1": {Score: 80}}}
	cached := NewCachedScorer(inner, 8, time.Minute)

	recipes := []RecipeSummary{{ID: "r1", Title: "Pho"}}
	user := UserSummary{DietType: "omnivore"}

	entries, _, err := cached.Score(context.Background(), recipes, user)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.InDelta(t, 80, entries["r1"].Score, 0.01)

	entries, meta, err := cached.Score(context.Background(), recipes, user)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second call should hit the cache")
	assert.InDelta(t, 80, entries["r1"].Score, 0.01)
	assert.Zero(t, meta.Usage.PromptTokens, "cache hits consume no tokens")
}

func TestCachedScorerKeyedByUserAndWorkingSet(t *testing.T) {
	inner := &stubScorer{entries: map[string]ScoreEntry{}}
	cached := NewCachedScorer(inner, 8, time.Minute)

	recipes := []RecipeSummary{{ID: "r1"}}
	_, _, err := cached.Score(context.Background(), recipes, UserSummary{DietType: "vegan"})
	require.NoError(t, err)
	_, _, err = cached.Score(context.Background(), recipes, UserSummary{DietType: "omnivore"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "different users must not share entries")

	_, _, err = cached.Score(context.Background(), []RecipeSummary{{ID: "r2"}}, UserSummary{DietType: "vegan"})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls, "different working sets must not share entries")
}

func TestCachedScorerDoesNotCacheFailures(t *testing.T) {
	inner := &stubScorer{err: ErrScorerUnavailable}
	cached := NewCachedScorer(inner, 8, time.Minute)

	recipes := []RecipeSummary{{ID: "r1"}}
	_, _, err := cached.Score(context.Background(), recipes, UserSummary{})
	assert.ErrorIs(t, err, ErrScorerUnavailable)

	inner.err = nil
	inner.entries = map[string]ScoreEntry{"r1": {Score: 70}}
	entries, _, err := cached.Score(context.Background(), recipes, UserSummary{})
	require.NoError(t, err)
	assert.InDelta(t, 70, entries["r1"].Score, 0.01)
}
