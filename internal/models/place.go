// internal/models/place.go
package models

import "strings"

// Place is a restaurant returned by the map provider.
// Identity is CanonicalURL; PlaceID is derived from it and may be empty.
type Place struct {
	PlaceID      string  `json:"placeId,omitempty"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	RoadAddress  string  `json:"roadAddress,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Category     string  `json:"category,omitempty"`
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`
	HasCoords    bool    `json:"hasCoords"`
	CanonicalURL string  `json:"url"`

	// X and Y are the coordinates as the provider wrote them.
	X string `json:"x,omitempty"`
	Y string `json:"y,omitempty"`
}

// DisplayAddress prefers the road address.
func (p Place) DisplayAddress() string {
	if p.RoadAddress != "" {
		return p.RoadAddress
	}
	return p.Address
}

// ShortCategory is the last " > " segment of the category path.
func (p Place) ShortCategory() string {
	parts := strings.Split(p.Category, " > ")
	return strings.TrimSpace(parts[len(parts)-1])
}

// MenuItem is one menu entry. Price is free text as scraped.
type MenuItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// TagVote is the number of reviewers who picked a keyword tag.
type TagVote struct {
	Tag   string `json:"tag"`
	Votes int    `json:"votes"`
}

// ReviewSummary is what the review flow could read off a place page.
// Tags keeps page order and unique tag names.
type ReviewSummary struct {
	Rating         *float64  `json:"rating,omitempty"`
	ReviewCount    int       `json:"reviewCount"`
	Tags           []TagVote `json:"tags,omitempty"`
	Reviews        []string  `json:"reviews,omitempty"`
	IsBlogFallback bool      `json:"isBlogFallback"`
}

// Empty reports whether nothing useful was found.
func (r ReviewSummary) Empty() bool {
	return r.Rating == nil && r.ReviewCount == 0 && len(r.Tags) == 0 && len(r.Reviews) == 0
}
