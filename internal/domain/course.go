package domain

import (
	"strings"
	"time"
)

// Course is the canonical representation of a discounted-course candidate
// inside this service. All site scrapers should map into this model, and the
// filter/enrollment layers only ever see this model.
type Course struct {
	Source string // site the candidate was discovered on ("realdiscount", etc.)
	ID     string // provider course id, if the site exposes one
	URL    string // course URL; doubles as the dedup key across sites

	Title      string
	Category   string
	Language   string
	Instructor string
	Rating     float64

	Price       Price
	LastUpdated time.Time // last content update reported by the site
}

// Price carries the course list price as reported by the source site.
// Amount is the undiscounted list price in Currency.
type Price struct {
	Amount     float64
	Currency   string
	Discounted bool // true when the listing is a discount (vs. always-free)
}

// Key returns the dedup key for the course. Listings for the same course on
// different aggregator sites share the same course URL, so the URL (minus
// tracking query params and trailing slashes) identifies the course.
func (c Course) Key() string {
	u := strings.TrimSpace(c.URL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	return strings.ToLower(u)
}
