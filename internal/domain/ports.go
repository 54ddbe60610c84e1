package domain

import "context"

// MarketClient is the upstream marketplace REST API.
type MarketClient interface {
	// SearchListings fetches all categories matching a free-text query.
	// The payload keeps the upstream shape: {accommodations:[...], restaurants:[...], ...}.
	SearchListings(ctx context.Context, query string) (map[string]any, error)
	// ListCategory fetches one category's full collection.
	ListCategory(ctx context.Context, kind Kind) ([]map[string]any, error)
	// GetListing fetches one record by id.
	GetListing(ctx context.Context, kind Kind, id string) (map[string]any, error)
}

// ReviewsClient is the reviews collaborator.
type ReviewsClient interface {
	ListReviews(ctx context.Context, listingID string) ([]map[string]any, error)
	AddReview(ctx context.Context, sub ReviewSubmission) (Ack, error)
}

// ReviewSubmission is the multipart payload for a new review.
type ReviewSubmission struct {
	ListingID string
	UserID    string
	Rating    int
	Comment   string
	Images    []ImageUpload
}

// Ack is the upstream's success-flag envelope.
type Ack struct {
	Success bool
	Message string
}

// Identity is the narrow view of the auth collaborator's current user.
type Identity struct {
	ID   string
	Name string
	Role string
}

const (
	RoleStudent = "student"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

// IdentityProvider exposes the current authenticated identity, if any.
// Lifecycle is owned by the hosting page/request, not by this package.
type IdentityProvider interface {
	Current(ctx context.Context) (Identity, bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SearchLog records executed searches for analytics and cache warming.
type SearchLog interface {
	LogSearch(ctx context.Context, query string, results int) error
	TopQueries(ctx context.Context, limit int) ([]QueryStat, error)
	RecentSearches(ctx context.Context, limit int) ([]SearchRecord, error)
}

type QueryStat struct {
	Query string
	Count int64
}

type SearchRecord struct {
	Query   string
	Results int
}
