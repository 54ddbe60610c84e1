package app

import (
	"context"
	"strings"

	"campus_market/internal/domain"
)

// Session owns one search page's state: the query-matched baseline, the
// active filter criteria, and the visible subset derived from them. Visible
// results are always recomputed from the baseline, never from the previous
// visible set, so filters are non-destructive and fully reversible.
//
// A Session is single-owner state, mirroring page-local state in a UI;
// callers serialize access themselves.
type Session struct {
	svc *SearchService

	gen      uint64 // bumped per search; stale completions are discarded
	query    string
	baseline []domain.Listing
	criteria domain.FilterCriteria
	visible  []domain.Listing
	errMsg   string
}

func NewSession(svc *SearchService) *Session {
	return &Session{svc: svc}
}

// Search issues a new query. Any active filter is discarded: each query
// starts unfiltered. Fetch failures become a display error with an empty
// baseline; nothing propagates as a fault.
func (s *Session) Search(ctx context.Context, rawQuery string) {
	gen := s.begin(rawQuery)
	results, err := s.svc.Search(ctx, rawQuery)
	s.finish(gen, results, err)
}

// begin registers a new in-flight search and returns its generation.
// Exposed to Search and to tests that simulate superseded requests.
func (s *Session) begin(rawQuery string) uint64 {
	s.gen++
	s.query = NormalizeQuery(rawQuery)
	return s.gen
}

// finish applies a search result unless a newer search has superseded it.
// Reports whether the result was applied.
func (s *Session) finish(gen uint64, results []domain.Listing, err error) bool {
	if gen != s.gen {
		return false // superseded; drop silently
	}
	s.criteria = domain.FilterCriteria{}
	if err != nil {
		s.baseline = nil
		s.visible = nil
		s.errMsg = "Failed to perform search. Please try again."
		return true
	}
	s.errMsg = ""
	s.baseline = results
	s.visible = results
	return true
}

// SetLocation updates the location criterion and recomputes the visible set
// from the baseline.
func (s *Session) SetLocation(loc string) {
	c := s.criteria
	c.Location = loc
	s.SetCriteria(c)
}

// SetListingType records the type criterion. It participates in Active() but
// is intentionally not applied to filtering; see FilterCriteria.
func (s *Session) SetListingType(t string) {
	c := s.criteria
	c.ListingType = t
	s.SetCriteria(c)
}

// SetCriteria replaces the criteria wholesale and re-derives the visible set.
func (s *Session) SetCriteria(c domain.FilterCriteria) {
	s.criteria = c
	s.visible = applyCriteria(s.baseline, c)
}

// applyCriteria derives the visible subset of baseline. Empty criteria
// restore the baseline exactly, by explicit check rather than by an empty
// substring matching everything.
func applyCriteria(baseline []domain.Listing, c domain.FilterCriteria) []domain.Listing {
	if !c.Active() {
		return baseline
	}
	out := baseline
	if c.Location != "" {
		want := strings.ToLower(c.Location)
		filtered := make([]domain.Listing, 0, len(out))
		for _, l := range out {
			// records without a location are excluded by a location filter
			if strings.Contains(strings.ToLower(l.Location), want) {
				filtered = append(filtered, l)
			}
		}
		out = filtered
	}
	return out
}

// Visible is the currently displayed result sequence.
func (s *Session) Visible() []domain.Listing { return s.visible }

// Baseline is the unfiltered result set for the current query.
func (s *Session) Baseline() []domain.Listing { return s.baseline }

func (s *Session) Query() string                   { return s.query }
func (s *Session) Criteria() domain.FilterCriteria { return s.criteria }
func (s *Session) Err() string                     { return s.errMsg }

// Page returns a view window over the visible results. It never mutates the
// underlying sequence. Pages are 1-based; out-of-range windows are empty.
func (s *Session) Page(page, size int) []domain.Listing {
	if page < 1 || size < 1 {
		return nil
	}
	lo := (page - 1) * size
	if lo >= len(s.visible) {
		return nil
	}
	hi := lo + size
	if hi > len(s.visible) {
		hi = len(s.visible)
	}
	return s.visible[lo:hi]
}

// TotalPages for a given window size over the visible results.
func (s *Session) TotalPages(size int) int {
	if size < 1 || len(s.visible) == 0 {
		return 1
	}
	return (len(s.visible) + size - 1) / size
}
