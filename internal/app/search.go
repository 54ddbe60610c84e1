package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"campus_market/internal/domain"
)

// NormalizeQuery canonicalizes a free-text search string for matching.
// Whitespace-only input collapses to "", which downstream treats as
// "no query": no upstream call, empty baseline, no error.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SearchService builds search baselines from the upstream marketplace and
// serves listing/review reads, with a response cache in front and a
// best-effort search log behind.
type SearchService struct {
	client   domain.MarketClient
	reviews  domain.ReviewsClient
	cache    domain.Cache
	searches domain.SearchLog
	cacheTTL time.Duration
}

func NewSearchService(c domain.MarketClient, rc domain.ReviewsClient, cache domain.Cache, sl domain.SearchLog, ttl time.Duration) *SearchService {
	return &SearchService{client: c, reviews: rc, cache: cache, searches: sl, cacheTTL: ttl}
}

// Search fetches, aggregates, and query-matches all categories, returning the
// baseline for the normalized query. The raw query is normalized here; an
// empty result short-circuits before any network work.
func (s *SearchService) Search(ctx context.Context, rawQuery string) ([]domain.Listing, error) {
	q := NormalizeQuery(rawQuery)
	if q == "" {
		return nil, nil
	}

	key := "search:" + q
	var cached []domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	payload, err := s.client.SearchListings(ctx, q)
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, fmt.Errorf("search unsuccessful")
	}

	all := aggregateListings(payload)
	baseline := make([]domain.Listing, 0, len(all))
	for _, l := range all {
		if l.Matches(q) {
			baseline = append(baseline, l)
		}
	}

	_ = s.cache.Set(ctx, key, baseline, int(s.cacheTTL.Seconds()))

	// analytics only; a failed insert never fails the search
	if s.searches != nil {
		if err := s.searches.LogSearch(ctx, q, len(baseline)); err != nil {
			log.Warn().Err(err).Str("query", q).Msg("search log write failed")
		}
	}
	return baseline, nil
}

// Browse returns one category's full collection.
func (s *SearchService) Browse(ctx context.Context, kind domain.Kind) ([]domain.Listing, error) {
	key := "browse:" + kind.String()
	var cached []domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	recs, err := s.client.ListCategory(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(recs))
	for _, m := range recs {
		out = append(out, mapListing(kind, m))
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// GetListing returns one record by id.
func (s *SearchService) GetListing(ctx context.Context, kind domain.Kind, id string) (domain.Listing, error) {
	key := fmt.Sprintf("listing:%s:%s", kind, id)
	var cached domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	rec, err := s.client.GetListing(ctx, kind, id)
	if err != nil {
		return domain.Listing{}, err
	}
	l := mapListing(kind, rec)
	_ = s.cache.Set(ctx, key, l, int(s.cacheTTL.Seconds()))
	return l, nil
}

// ListReviews returns a listing's reviews, newest first as the upstream
// serves them.
func (s *SearchService) ListReviews(ctx context.Context, listingID string) ([]domain.Review, error) {
	key := "reviews:" + listingID
	var cached []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	recs, err := s.reviews.ListReviews(ctx, listingID)
	if err != nil {
		return nil, err
	}
	out := mapReviews(listingID, recs)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// InvalidateReviews drops the cached review list after a new submission.
func (s *SearchService) InvalidateReviews(ctx context.Context, listingID string) {
	_ = s.cache.Del(ctx, "reviews:"+listingID)
}
