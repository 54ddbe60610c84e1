package market_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"campus_market/internal/adapters/market"
	"campus_market/internal/adapters/observability"
	"campus_market/internal/domain"
)

func TestClient_SearchListings_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"listings": map[string]any{
					"accommodations": []any{map[string]any{"_id": "a1", "title": "Hostel Green"}},
				},
			})
		}
	}))
	defer ts.Close()

	cl, err := market.New(ts.URL, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.SearchListings(ctx, "hostel")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok, _ := got["success"].(bool); !ok {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetListing_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := market.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetListing(ctx, domain.KindShop, "missing")
	if !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_AddReview_MultipartFields(t *testing.T) {
	var gotRating, gotComment, gotListing string
	var gotImages int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(400)
			return
		}
		gotRating = r.FormValue("rating")
		gotComment = r.FormValue("comment")
		gotListing = r.FormValue("listingId")
		gotImages = len(r.MultipartForm.File["images"])
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "created"})
	}))
	defer ts.Close()

	cl, _ := market.New(ts.URL, 100)
	ack, err := cl.AddReview(context.Background(), domain.ReviewSubmission{
		ListingID: "l1",
		UserID:    "u1",
		Rating:    4,
		Comment:   "clean and quiet place",
		Images: []domain.ImageUpload{
			{Name: "a.jpg", ContentType: "image/jpeg", Size: 3, Data: []byte{1, 2, 3}},
			{Name: "b.png", ContentType: "image/png", Size: 3, Data: []byte{4, 5, 6}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ack.Success || ack.Message != "created" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if gotRating != "4" || gotComment != "clean and quiet place" || gotListing != "l1" || gotImages != 2 {
		t.Fatalf("server saw rating=%q comment=%q listing=%q images=%d", gotRating, gotComment, gotListing, gotImages)
	}
}

func TestClient_AddReview_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "already reviewed"})
	}))
	defer ts.Close()

	cl, _ := market.New(ts.URL, 100)
	_, err := cl.AddReview(context.Background(), domain.ReviewSubmission{ListingID: "l1", UserID: "u1", Rating: 5, Comment: "good enough place"})
	var rej *domain.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if rej.Message != "already reviewed" {
		t.Fatalf("unexpected message: %q", rej.Message)
	}
}

func TestClient_RecordsUpstreamMetrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "listings": map[string]any{}})
	}))
	defer ts.Close()

	cl, err := market.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// counters are process-global, so compare deltas
	before := testutil.ToFloat64(observability.UpstreamRequests.WithLabelValues("search", "200"))
	if _, err := cl.SearchListings(context.Background(), "hostel"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	after := testutil.ToFloat64(observability.UpstreamRequests.WithLabelValues("search", "200"))
	if after-before != 1 {
		t.Fatalf("search counter delta = %v, want 1", after-before)
	}
}
