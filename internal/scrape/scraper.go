// Package scrape runs one task per configured aggregator site, tracks each
// task through a small state machine, and merges every site's candidates
// into a single deduplicated ledger.
package scrape

import (
	"context"

	"course-enroller/internal/domain"
)

// ProgressFunc reports scrape progress: scraped items so far and the total
// expected once known (total stays 0 while unknown).
type ProgressFunc func(scraped, total int)

// Scraper is implemented once per aggregator site by a collaborator.
// Scrape blocks until the site is exhausted, calling report as it goes;
// it must honor ctx. The coordinator never does network I/O itself.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, report ProgressFunc) ([]domain.Course, error)
}
