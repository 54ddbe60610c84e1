// internal/adapters/market/client.go
package market

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"campus_market/internal/adapters/observability"
	"campus_market/internal/domain"
)

// Client talks to the campus marketplace REST API.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) SearchListings(ctx context.Context, query string) (map[string]any, error) {
	u := c.base + "/api/listings"
	if query != "" {
		u += "?search=" + url.QueryEscape(query)
	}
	var out map[string]any
	return out, c.get(ctx, "search", u, &out)
}

func (c *Client) ListCategory(ctx context.Context, kind domain.Kind) ([]map[string]any, error) {
	var env struct {
		Success  bool             `json:"success"`
		Listings []map[string]any `json:"listings"`
	}
	if err := c.get(ctx, "category", fmt.Sprintf("%s/api/listings/%s", c.base, kindPath(kind)), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("listing fetch unsuccessful")
	}
	return env.Listings, nil
}

func (c *Client) GetListing(ctx context.Context, kind domain.Kind, id string) (map[string]any, error) {
	var env struct {
		Success bool           `json:"success"`
		Listing map[string]any `json:"listing"`
	}
	if err := c.get(ctx, "listing", fmt.Sprintf("%s/api/listings/%s/%s", c.base, kindPath(kind), url.PathEscape(id)), &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Listing == nil {
		return nil, ErrNotFound
	}
	return env.Listing, nil
}

func (c *Client) ListReviews(ctx context.Context, listingID string) ([]map[string]any, error) {
	var env struct {
		Success bool             `json:"success"`
		Reviews []map[string]any `json:"reviews"`
	}
	if err := c.get(ctx, "reviews", fmt.Sprintf("%s/api/reviews/%s", c.base, url.PathEscape(listingID)), &env); err != nil {
		return nil, err
	}
	return env.Reviews, nil
}

// AddReview posts a multipart form with the draft fields and image parts.
// A decoded success=false envelope becomes a RejectionError carrying the
// server's message; transport failures come back wrapped so callers can show
// a generic retry message.
func (c *Client) AddReview(ctx context.Context, sub domain.ReviewSubmission) (domain.Ack, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.Ack{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"listingId", sub.ListingID},
		{"listing", sub.ListingID},
		{"rating", strconv.Itoa(sub.Rating)},
		{"comment", sub.Comment},
		{"userId", sub.UserID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return domain.Ack{}, &domain.TransportError{Err: err}
		}
	}
	for _, img := range sub.Images {
		part, err := mw.CreateFormFile("images", img.Name)
		if err != nil {
			return domain.Ack{}, &domain.TransportError{Err: err}
		}
		if _, err := part.Write(img.Data); err != nil {
			return domain.Ack{}, &domain.TransportError{Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return domain.Ack{}, &domain.TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/reviews", &buf)
	if err != nil {
		return domain.Ack{}, &domain.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "campus-market/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Ack{}, ctx.Err()
		}
		return domain.Ack{}, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveUpstream("add_review", resp.StatusCode, time.Since(start))

	var ack struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, &ack); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return domain.Ack{}, &domain.TransportError{Err: err}
		}
		return domain.Ack{}, &domain.RejectionError{Message: fmt.Sprintf("remote %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = fmt.Sprintf("remote %d", resp.StatusCode)
		}
		return domain.Ack{Success: false, Message: ack.Message}, &domain.RejectionError{Message: msg}
	}
	return domain.Ack{Success: true, Message: ack.Message}, nil
}

func kindPath(k domain.Kind) string {
	switch k {
	case domain.KindAccommodation:
		return "accommodations"
	case domain.KindRestaurant:
		return "restaurants"
	case domain.KindShop:
		return "shops"
	case domain.KindMess:
		return "messes"
	}
	return "accommodations"
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("market: not found")
	ErrUnauthorized = errors.New("market: unauthorized")
	ErrForbidden    = errors.New("market: forbidden")
)

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "campus-market/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &domain.TransportError{Err: lastErr}
		}
		observability.ObserveUpstream(endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return &domain.TransportError{Err: err}
			}
			return nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
