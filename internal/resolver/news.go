package resolver

import (
	"context"

	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
)

// GetNews implements the News priority table (spec §4.6): L1 → L1′ →
// each configured news provider in order, merged and deduplicated by
// canonical URL hash. No News StoredRecord exists in the data model
// (§3), so there is no L2 step here — see DESIGN.md.
func (r *Resolver) GetNews(ctx context.Context, query string, windowDays, limit int) ([]provider.Article, error) {
	queryHash := provider.CanonicalURLHash(query)
	key := keys.News(queryHash, windowDays, 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveNews(ctx, query, windowDays, limit, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]provider.Article), nil
}

func (r *Resolver) resolveNews(ctx context.Context, query string, windowDays, limit int, key string) ([]provider.Article, error) {
	var cached []provider.Article
	if r.getCached(ctx, key, &cached) {
		return cached, nil
	}

	var merged []provider.Article
	seen := make(map[string]struct{})
	corrID := newCorrelationID()
	var attempts []attempt
	anySucceeded := false

	for _, desc := range r.providers.Ordered(provider.CapabilityNews) {
		inst, ok := r.providers.Instance(provider.CapabilityNews, desc.Name)
		if !ok {
			continue
		}
		np := inst.(provider.NewsProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilityNews, desc.Name), func(ctx context.Context) (any, error) {
			return np.GetArticles(ctx, query, windowDays, limit)
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilityNews), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			if !anySucceeded {
				return nil, err
			}
			continue
		}

		anySucceeded = true
		for _, article := range raw.([]provider.Article) {
			hash := provider.CanonicalURLHash(article.URL)
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}
			merged = append(merged, article)
		}
	}

	if !anySucceeded {
		return nil, r.escalate(attempts, string(provider.CapabilityNews), corrID)
	}

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	r.setCached(ctx, key, merged, r.cfg.NewsTTL, "merged")
	return merged, nil
}
