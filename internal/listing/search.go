package listing

import (
	"strconv"
	"strings"
)

// Filter returns the listings matching a free-text query.
//
// The query is split on whitespace into lower-cased terms; a listing is
// included when any term matches any of its searchable fields. The result
// preserves the input order (stable filter, no ranking). An empty or
// whitespace-only query returns the input unchanged.
//
// Filter never fails on missing or malformed fields: empty numeric fields
// are treated as "0" and unparseable rents simply never match the under-N
// predicate.
func Filter(listings []*Listing, query string) []*Listing {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return listings
	}

	var matched []*Listing
	for _, l := range listings {
		for _, term := range terms {
			if matchesTerm(l, term) {
				matched = append(matched, l)
				break
			}
		}
	}
	return matched
}

// matchesTerm reports whether a single query term matches the listing.
func matchesTerm(l *Listing, term string) bool {
	if strings.Contains(strings.ToLower(l.Location), term) {
		return true
	}
	if strings.Contains(strings.ToLower(l.Features), term) {
		return true
	}

	// Substring on purpose: "2" matches 2-bedroom and 20-bedroom listings
	// alike. The listing form has always behaved this way and saved
	// searches depend on it.
	if strings.Contains(orZero(l.Bedrooms), term) {
		return true
	}
	if strings.Contains(orZero(l.Floor), term) {
		return true
	}

	rent := orZero(l.Rent)
	if rent == term {
		return true
	}
	if strings.HasPrefix(term, "under-") {
		if rentAtMost(rent, strings.TrimPrefix(term, "under-")) {
			return true
		}
	}

	if strings.Contains(strings.ToLower(l.Status), term) {
		return true
	}
	for _, k := range l.Keywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}

// rentAtMost reports whether rent parses as a number no greater than bound.
// A non-numeric rent or bound never matches.
func rentAtMost(rent, bound string) bool {
	b, err := strconv.Atoi(bound)
	if err != nil {
		return false
	}
	r, err := strconv.Atoi(strings.TrimSpace(rent))
	if err != nil {
		return false
	}
	return r <= b
}

// orZero lower-cases a stringly-numeric field, defaulting empties to "0"
// the way the upstream documents do.
func orZero(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "0"
	}
	return s
}
