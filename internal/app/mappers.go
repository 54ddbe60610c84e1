package app

import (
	"strconv"
	"strings"

	"campus_market/internal/domain"
)

/********** alias registries (single source of truth) **********/

var listingAliases = map[string][]string{
	"id":          {"_id", "id", "listingId"},
	"title":       {"title", "name"},
	"location":    {"location", "address", "area"},
	"description": {"description", "about"},
	"roomType":    {"roomType", "room_type"},
	"shopCat":     {"shopCategory", "shop_category", "category"},
}

var reviewAliases = map[string][]string{
	"id":      {"_id", "id"},
	"user":    {"user.name", "userName", "user"},
	"comment": {"comment", "text", "review"},
}

// categoryOrder fixes both the aggregation order and the variant each
// upstream collection maps to.
var categoryOrder = []struct {
	key  string
	kind domain.Kind
}{
	{"accommodations", domain.KindAccommodation},
	{"restaurants", domain.KindRestaurant},
	{"shops", domain.KindShop},
	{"messes", domain.KindMess},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstAlias: first non-empty string for a named alias set.
func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// floatAt: number from several paths (float64/int/string).
func floatAt(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// stringsAt: accept []any of strings at the first path that has content.
func stringsAt(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				if s, ok := it.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** listing mapper **********/

// mapListing converts one upstream record into the tagged union. The caller
// supplies the Kind from the collection the record came from; a "__t"
// discriminant on the record itself wins when it parses.
func mapListing(kind domain.Kind, m map[string]any) domain.Listing {
	if t := lookupStr(m, "__t"); t != "" {
		if k, ok := domain.ParseKind(t); ok {
			kind = k
		}
	}
	return domain.Listing{
		ID:           firstAlias(m, listingAliases, "id"),
		Kind:         kind,
		Title:        firstAlias(m, listingAliases, "title"),
		Location:     firstAlias(m, listingAliases, "location"),
		Description:  firstAlias(m, listingAliases, "description"),
		Amenities:    stringsAt(m, "amenities", "facilities"),
		Images:       stringsAt(m, "images", "photos"),
		Price:        floatAt(m, "price", "rent", "averageSpend"),
		RoomType:     ptrStr(firstAlias(m, listingAliases, "roomType")),
		CuisineTypes: stringsAt(m, "cuisineType", "cuisineTypes"),
		ShopCategory: ptrStr(firstAlias(m, listingAliases, "shopCat")),
	}
}

/********** result aggregation **********/

// aggregateListings flattens the upstream search envelope's per-category
// collections in fixed order (accommodations, restaurants, shops, messes).
// Missing or null collections count as empty, never as errors.
func aggregateListings(payload map[string]any) []domain.Listing {
	listings, _ := lookupAny(payload, "listings").(map[string]any)
	if listings == nil {
		return nil
	}
	var out []domain.Listing
	for _, cat := range categoryOrder {
		raw, _ := listings[cat.key].([]any)
		for _, it := range raw {
			if rec, ok := it.(map[string]any); ok {
				out = append(out, mapListing(cat.kind, rec))
			}
		}
	}
	return out
}

/********** review mapper **********/

func mapReview(listingID string, m map[string]any) domain.Review {
	rv := domain.Review{
		ID:        firstAlias(m, reviewAliases, "id"),
		ListingID: listingID,
		UserName:  firstAlias(m, reviewAliases, "user"),
		Comment:   firstAlias(m, reviewAliases, "comment"),
		Images:    stringsAt(m, "images"),
	}
	if f := floatAt(m, "rating", "stars"); f != nil {
		rv.Rating = int(*f)
	}
	if fb := lookupStr(m, "ownerFeedback.comment"); fb != "" {
		rv.OwnerFeedback = &fb
	}
	return rv
}

func mapReviews(listingID string, in []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, m := range in {
		out = append(out, mapReview(listingID, m))
	}
	return out
}
