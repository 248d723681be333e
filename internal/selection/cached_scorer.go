package selection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"nutriplan/internal/shared"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// CachedScorer wraps a Scorer with a bounded TTL cache so repeated
// generation rounds for the same user and working set do not re-pay the
// scoring call. It is an injected collaborator, not process-wide state.
type CachedScorer struct {
	inner Scorer
	cache *expirable.LRU[string, map[string]ScoreEntry]
}

// NewCachedScorer creates a caching decorator with the given capacity and
// TTL.
func NewCachedScorer(inner Scorer, size int, ttl time.Duration) *CachedScorer {
	return &CachedScorer{
		inner: inner,
		cache: expirable.NewLRU[string, map[string]ScoreEntry](size, nil, ttl),
	}
}

// Score implements Scorer. Cache hits report zero usage: no external call
// was made.
func (c *CachedScorer) Score(ctx context.Context, recipes []RecipeSummary, user UserSummary) (map[string]ScoreEntry, shared.AgentMeta, error) {
	key := cacheKey(recipes, user)
	if entries, ok := c.cache.Get(key); ok {
		log.Debug().Str("key", key[:12]).Msg("scorer cache hit")
		return entries, shared.AgentMeta{AgentName: "Scorer"}, nil
	}

	entries, meta, err := c.inner.Score(ctx, recipes, user)
	if err != nil {
		return nil, meta, err
	}
	c.cache.Add(key, entries)
	return entries, meta, nil
}

func cacheKey(recipes []RecipeSummary, user UserSummary) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(user)
	for _, r := range recipes {
		_ = enc.Encode(r.ID)
	}
	return hex.EncodeToString(h.Sum(nil))
}
