// Package filter decides whether a scraped candidate course qualifies for
// enrollment. The predicate is pure: rejection is silent and the enrollment
// engine is responsible for counting rejected candidates as excluded.
package filter

import (
	"strings"
	"time"

	"course-enroller/internal/domain"
)

// Config enumerates the user-selected filter options for one run.
// The selection maps follow the settings-file shape: key -> enabled.
// An empty selection map means "no restriction" for that dimension.
type Config struct {
	Sites      map[string]bool
	Categories map[string]bool
	Languages  map[string]bool

	// MinRating rejects courses rated below the threshold (0 disables).
	MinRating float64

	// MaxStalenessMonths rejects courses whose last update is older than
	// this many months (0 disables). Courses with an unknown update date
	// pass the check.
	MaxStalenessMonths int

	// DiscountedOnly rejects always-free listings, keeping only courses
	// that are actually discounted from a list price.
	DiscountedOnly bool

	// Case-insensitive substring matches. Exclusions take precedence over
	// the selection maps above.
	InstructorExclude []string
	TitleExclude      []string
}

// Accept reports whether the candidate passes every configured check.
func (cfg Config) Accept(c domain.Course) bool {
	return cfg.AcceptAt(c, time.Now())
}

// AcceptAt is Accept with an explicit reference time for the staleness check.
func (cfg Config) AcceptAt(c domain.Course, now time.Time) bool {
	// Exclusion lists first: an excluded instructor or title wins even when
	// every selection matches.
	if matchesAny(c.Instructor, cfg.InstructorExclude) {
		return false
	}
	if matchesAny(c.Title, cfg.TitleExclude) {
		return false
	}

	if !selected(cfg.Sites, c.Source) {
		return false
	}
	if !selected(cfg.Categories, c.Category) {
		return false
	}
	if !selected(cfg.Languages, c.Language) {
		return false
	}

	if cfg.MinRating > 0 && c.Rating < cfg.MinRating {
		return false
	}

	if cfg.MaxStalenessMonths > 0 && !c.LastUpdated.IsZero() {
		cutoff := now.AddDate(0, -cfg.MaxStalenessMonths, 0)
		if c.LastUpdated.Before(cutoff) {
			return false
		}
	}

	if cfg.DiscountedOnly && !c.Price.Discounted {
		return false
	}

	return true
}

func selected(set map[string]bool, key string) bool {
	if len(set) == 0 {
		return true
	}
	return set[key]
}

func matchesAny(value string, patterns []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}
