// Package listing provides the rental listing domain model, data access,
// and the client-side search filter.
package listing

import (
	"encoding/json"
	"time"
)

// Listing statuses as they appear in the data. The lowercase "rented" is
// historical: existing documents carry it and the filter matches it as text.
const (
	StatusAvailable   = "Available"
	StatusUnavailable = "Unavailable"
	StatusRented      = "rented"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusUnavailable, StatusRented:
		return true
	}
	return false
}

// Listing represents a rentable unit posted by a seller.
//
// Floor, Bedrooms and Rent are strings on purpose: the upstream listing
// form stores them as free text, values may be missing or non-numeric, and
// the search filter treats them as text. Consumers that need numbers parse
// them and treat failures as "no value".
type Listing struct {
	ID            string    `json:"id"`
	OwnerEmail    string    `json:"owner_email"`
	Location      string    `json:"location"`
	Features      string    `json:"features"`
	Floor         string    `json:"floor"`
	Bedrooms      string    `json:"bedrooms"`
	Rent          string    `json:"rent"`
	Status        string    `json:"status"`
	Keywords      []string  `json:"keywords,omitempty"`
	Images        []string  `json:"images,omitempty"`
	AvailableFrom string    `json:"available_from,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// decodeStringList parses a JSON-encoded string list from storage.
// Malformed data degrades to an empty list rather than an error.
func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// encodeStringList serializes a string list for storage.
func encodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}
