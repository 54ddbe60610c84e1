package domain

import (
	"fmt"
	"strings"
)

// Kind discriminates the listing variants. Upstream tags records with a
// mongoose-style "__t" field; we map that onto an explicit enum once at the
// mapping boundary and dispatch exhaustively from there.
type Kind int

const (
	KindAccommodation Kind = iota
	KindRestaurant
	KindShop
	KindMess
)

func (k Kind) String() string {
	switch k {
	case KindAccommodation:
		return "accommodation"
	case KindRestaurant:
		return "restaurant"
	case KindShop:
		return "shop"
	case KindMess:
		return "mess"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a route segment or upstream discriminant to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "listing") {
	case "accommodation", "accommodations", "pg":
		return KindAccommodation, true
	case "restaurant", "restaurants":
		return KindRestaurant, true
	case "shop", "shops":
		return KindShop, true
	case "mess", "messes":
		return KindMess, true
	}
	return 0, false
}

type Listing struct {
	ID          string
	Kind        Kind
	Title       string
	Location    string
	Description string
	Amenities   []string
	Images      []string
	Price       *float64

	// variant-specific
	RoomType     *string  // accommodations
	CuisineTypes []string // restaurants
	ShopCategory *string  // shops
}

// Matches reports whether the normalized (lower-cased, trimmed) query is a
// substring of any searchable field. An empty query never matches; callers
// short-circuit before getting here, but the guard keeps the predicate honest.
func (l Listing) Matches(normalizedQuery string) bool {
	if normalizedQuery == "" {
		return false
	}
	fields := []string{
		strings.ToLower(l.Title),
		strings.ToLower(l.Location),
		strings.ToLower(l.Description),
		strings.ToLower(strings.Join(l.Amenities, " ")),
	}
	for _, f := range fields {
		if strings.Contains(f, normalizedQuery) {
			return true
		}
	}
	return false
}

// PriceLabel renders the price with variant-appropriate semantics:
// monthly rent for places you live at, average spend for places you buy at.
func (l Listing) PriceLabel() string {
	if l.Price == nil {
		return ""
	}
	switch l.Kind {
	case KindRestaurant, KindShop:
		return fmt.Sprintf("₹%g average", *l.Price)
	case KindAccommodation, KindMess:
		return fmt.Sprintf("₹%g/month", *l.Price)
	}
	return fmt.Sprintf("₹%g", *l.Price)
}

// DetailPath is the canonical front-end route for this listing.
func (l Listing) DetailPath() string {
	return "/" + l.Kind.String() + "/" + l.ID
}

// FilterCriteria is what the user can narrow a result set by. Only Location
// currently participates in filtering; ListingType is carried for forward
// compatibility but is not applied (upstream records lack reliable type
// metadata for it).
type FilterCriteria struct {
	Location    string
	ListingType string
}

// Active reports whether any criterion is set. Restoring the unfiltered
// baseline on empty criteria is driven by this check, not by an empty
// substring accidentally matching everything.
func (c FilterCriteria) Active() bool {
	return c.Location != "" || c.ListingType != ""
}
