package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_market/internal/domain"
)

func campusFixture() *fakeMarket {
	return &fakeMarket{payload: searchPayload(map[string][]map[string]any{
		"accommodations": {
			rec("a1", "Hostel Green", "Green Street"),
			rec("a2", "Sunrise PG", "Blue Hills"),
			rec("a3", "Lakeview Rooms", "Lakeside"),
		},
		"restaurants": {
			rec("r1", "Dosa Corner", "Green Street"),
			rec("r2", "Noodle Bar", "Market Lane"),
		},
	})}
}

func ids(ls []domain.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestSession_FilterIdempotent(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "green")

	s.SetLocation("green")
	once := ids(s.Visible())
	s.SetLocation("green")
	twice := ids(s.Visible())
	assert.Equal(t, once, twice, "re-applying the same filter must not change the result")
}

func TestSession_FilterReversible(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "street")
	baseline := ids(s.Baseline())
	require.NotEmpty(t, baseline)

	s.SetLocation("green")
	s.SetLocation("")
	assert.Equal(t, baseline, ids(s.Visible()), "clearing the filter must restore the baseline exactly")
}

func TestSession_FiltersFromBaselineNotFromVisible(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "e") // matches everything in the fixture

	// narrow to one street, then switch to a different one; the second
	// filter must see the full baseline, not the first filter's survivors
	s.SetLocation("green street")
	require.Equal(t, []string{"a1", "r1"}, ids(s.Visible()))
	s.SetLocation("blue hills")
	assert.Equal(t, []string{"a2"}, ids(s.Visible()))
}

func TestSession_NewQueryResetsFilter(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "green")
	s.SetLocation("nowhere")
	require.Empty(t, s.Visible())

	s.Search(context.Background(), "noodle")
	assert.False(t, s.Criteria().Active(), "a new query starts unfiltered")
	assert.Equal(t, []string{"r2"}, ids(s.Visible()))
}

func TestSession_ListingTypeCriterionIsInert(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "green")
	all := ids(s.Visible())

	s.SetListingType("restaurant")
	assert.True(t, s.Criteria().Active())
	assert.Equal(t, all, ids(s.Visible()), "type criterion is recorded but not applied")
}

func TestSession_MissingLocationExcludedByFilter(t *testing.T) {
	m := &fakeMarket{payload: searchPayload(map[string][]map[string]any{
		"shops": {
			{"_id": "s1", "title": "Green Grocer"}, // no location field
			rec("s2", "Green Stationery", "Green Street"),
		},
	})}
	svc, _ := newService(m)
	s := NewSession(svc)
	s.Search(context.Background(), "green")
	require.Len(t, s.Visible(), 2)

	s.SetLocation("green")
	assert.Equal(t, []string{"s2"}, ids(s.Visible()))
}

func TestSession_SearchFailureBecomesDisplayError(t *testing.T) {
	m := &fakeMarket{searchErr: errors.New("boom")}
	svc, _ := newService(m)
	s := NewSession(svc)
	s.Search(context.Background(), "hostel")

	assert.Empty(t, s.Baseline())
	assert.Empty(t, s.Visible())
	assert.NotEmpty(t, s.Err())

	// a later successful search clears the error
	m.searchErr = nil
	m.payload = searchPayload(map[string][]map[string]any{
		"accommodations": {rec("a1", "Hostel Green", "Green Street")},
	})
	s.Search(context.Background(), "hostel")
	assert.Empty(t, s.Err())
	assert.Len(t, s.Visible(), 1)
}

func TestSession_StaleSearchDiscarded(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)

	gen1 := s.begin("green")
	gen2 := s.begin("noodle")

	stale := []domain.Listing{{ID: "old"}}
	assert.False(t, s.finish(gen1, stale, nil), "superseded result must be dropped")
	assert.Empty(t, s.Visible())

	fresh := []domain.Listing{{ID: "r2", Title: "Noodle Bar"}}
	assert.True(t, s.finish(gen2, fresh, nil))
	assert.Equal(t, []string{"r2"}, ids(s.Visible()))
}

func TestSession_PageIsViewWindowOnly(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)
	s.Search(context.Background(), "e")
	total := len(s.Visible())
	require.Equal(t, 5, total)

	assert.Len(t, s.Page(1, 2), 2)
	assert.Len(t, s.Page(3, 2), 1)
	assert.Empty(t, s.Page(4, 2))
	assert.Equal(t, 3, s.TotalPages(2))
	assert.Len(t, s.Visible(), total, "paging must not truncate the visible set")
}

// End-to-end walk of the search page behavior: query, filter, refilter, clear.
func TestSession_QueryFilterClear(t *testing.T) {
	svc, _ := newService(campusFixture())
	s := NewSession(svc)

	s.Search(context.Background(), "hostel")
	require.Equal(t, []string{"a1"}, ids(s.Visible()))

	s.SetLocation("green")
	assert.Equal(t, []string{"a1"}, ids(s.Visible()))

	s.SetLocation("blue")
	assert.Empty(t, s.Visible())

	s.SetLocation("")
	assert.Equal(t, []string{"a1"}, ids(s.Visible()))
}
