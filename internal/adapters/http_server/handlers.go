// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"campus_market/internal/adapters/assets"
	"campus_market/internal/adapters/observability"
	"campus_market/internal/app"
	"campus_market/internal/domain"
)

type Handlers struct {
	Q       *app.SearchService
	Reviews domain.ReviewsClient
	Assets  assets.Resolver
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/search", h.search)
	s.mux.Get("/v1/listings/{kind}", h.browse)
	s.mux.Get("/v1/listings/{kind}/{id}", h.getListing)
	s.mux.Get("/v1/listings/{id}/reviews", h.listReviews)
	s.mux.Post("/v1/listings/{id}/reviews", h.addReview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- view models ----

type listingView struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Title        string   `json:"title"`
	Location     string   `json:"location"`
	Description  string   `json:"description,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	Images       []string `json:"images,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	PriceLabel   string   `json:"priceLabel,omitempty"`
	DetailPath   string   `json:"detailPath"`
	RoomType     *string  `json:"roomType,omitempty"`
	CuisineTypes []string `json:"cuisineType,omitempty"`
	ShopCategory *string  `json:"shopCategory,omitempty"`
}

func (h *Handlers) viewListing(l domain.Listing) listingView {
	return listingView{
		ID:           l.ID,
		Kind:         l.Kind.String(),
		Title:        l.Title,
		Location:     l.Location,
		Description:  l.Description,
		Amenities:    l.Amenities,
		Images:       h.Assets.ResolveAll(l.Images),
		Price:        l.Price,
		PriceLabel:   l.PriceLabel(),
		DetailPath:   l.DetailPath(),
		RoomType:     l.RoomType,
		CuisineTypes: l.CuisineTypes,
		ShopCategory: l.ShopCategory,
	}
}

func (h *Handlers) viewListings(ls []domain.Listing) []listingView {
	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, h.viewListing(l))
	}
	return out
}

type reviewView struct {
	ID            string   `json:"id"`
	UserName      string   `json:"userName"`
	Rating        int      `json:"rating"`
	Comment       string   `json:"comment"`
	Images        []string `json:"images,omitempty"`
	OwnerFeedback *string  `json:"ownerFeedback,omitempty"`
}

// ---- handlers ----

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	page := 1
	if ps := r.URL.Query().Get("page"); ps != "" {
		p, err := strconv.Atoi(ps)
		if err != nil || p < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
			return
		}
		page = p
	}
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}

	criteria := domain.FilterCriteria{
		Location:    r.URL.Query().Get("location"),
		ListingType: r.URL.Query().Get("type"),
	}

	sess := app.NewSession(h.Q)
	sess.Search(r.Context(), q)
	if msg := sess.Err(); msg != "" {
		writeProblem(w, http.StatusBadGateway, "Search failed", msg)
		return
	}
	sess.SetCriteria(criteria)

	observability.ObserveSearch(len(sess.Visible()), criteria.Active())

	resp := struct {
		Query      string        `json:"query"`
		Total      int           `json:"total"`
		Page       int           `json:"page"`
		TotalPages int           `json:"totalPages"`
		Items      []listingView `json:"items"`
	}{
		Query:      sess.Query(),
		Total:      len(sess.Visible()),
		Page:       page,
		TotalPages: sess.TotalPages(limit),
		Items:      h.viewListings(sess.Page(page, limit)),
	}
	writeJSONWithETag(w, r, resp)
}

func (h *Handlers) browse(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid kind", "unknown listing category")
		return
	}
	ls, err := h.Q.Browse(r.Context(), kind)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Browse failed", "could not fetch listings")
		return
	}
	resp := struct {
		Kind  string        `json:"kind"`
		Items []listingView `json:"items"`
	}{Kind: kind.String(), Items: h.viewListings(ls)}
	writeJSONWithETag(w, r, resp)
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid kind", "unknown listing category")
		return
	}
	l, err := h.Q.GetListing(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
		return
	}
	writeJSONWithETag(w, r, h.viewListing(l))
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rs, err := h.Q.ListReviews(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Reviews unavailable", "could not fetch reviews")
		return
	}
	out := make([]reviewView, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewView{
			ID:            rv.ID,
			UserName:      rv.UserName,
			Rating:        rv.Rating,
			Comment:       rv.Comment,
			Images:        h.Assets.ResolveAll(rv.Images),
			OwnerFeedback: rv.OwnerFeedback,
		})
	}
	writeJSONWithETag(w, r, struct {
		Reviews []reviewView `json:"reviews"`
	}{Reviews: out})
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid form", "expected multipart form data")
		return
	}

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid rating", "rating must be an integer")
		return
	}

	wf := app.NewReviewWorkflow(h.Reviews, IdentityFromRequest(r), id)
	wf.SetRating(rating)
	wf.SetComment(r.FormValue("comment"))

	var images []domain.ImageUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid image", "could not read attached file")
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageBytes+1))
			f.Close()
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid image", "could not read attached file")
				return
			}
			// clients that build the form without per-part types declare
			// application/octet-stream; sniff the bytes in that case
			ct := fh.Header.Get("Content-Type")
			if ct == "" || ct == "application/octet-stream" {
				ct = http.DetectContentType(data)
			}
			images = append(images, domain.ImageUpload{
				Name:        fh.Filename,
				ContentType: ct,
				Size:        int64(len(data)),
				Data:        data,
			})
		}
	}
	if err := wf.AttachImages(images); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Images rejected", err.Error())
		return
	}

	if err := wf.Submit(r.Context()); err != nil {
		status, title := submitStatus(err)
		writeProblem(w, status, title, wf.Err())
		return
	}

	h.Q.InvalidateReviews(r.Context(), id)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Review submitted successfully!"})
}

func submitStatus(err error) (int, string) {
	var rej *domain.RejectionError
	var te *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Login required"
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, "Not allowed"
	case errors.Is(err, domain.ErrEmptyComment),
		errors.Is(err, domain.ErrCommentTooShort),
		errors.Is(err, domain.ErrInvalidRating):
		return http.StatusUnprocessableEntity, "Invalid review"
	case errors.As(err, &rej):
		return http.StatusBadGateway, "Submission rejected"
	case errors.As(err, &te):
		return http.StatusBadGateway, "Submission failed"
	}
	return http.StatusInternalServerError, "Submission failed"
}
