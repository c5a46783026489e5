// Package feed scrapes discounted-course candidates from paginated JSON
// feeds. Each configured feed is one site from the coordinator's point of
// view; the feed format is site-agnostic so new sources only need a URL.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"course-enroller/internal/domain"
	"course-enroller/internal/httpx"
	"course-enroller/internal/scrape"
)

const defaultPageSize = 50

// page is one response of the feed endpoint.
type page struct {
	Total   int          `json:"total"`
	Courses []feedCourse `json:"courses"`
}

type feedCourse struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Language    string  `json:"language"`
	Instructor  string  `json:"instructor"`
	Rating      float64 `json:"rating"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Discounted  bool    `json:"discounted"`
	LastUpdated string  `json:"last_updated"`
}

// Feed scrapes one paginated JSON feed. It implements scrape.Scraper.
type Feed struct {
	// Source is the site name candidates are attributed to.
	Source string

	// URL is the feed endpoint; page and page_size query parameters are
	// appended per request.
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	// PageSize defaults to 50.
	PageSize int

	// Retry defaults to httpx.DefaultRetryConfig.
	Retry httpx.RetryConfig

	// Limiter paces page fetches. Nil disables pacing.
	Limiter *rate.Limiter
}

func (f *Feed) Name() string { return f.Source }

// Scrape walks the feed page by page until the reported total is reached.
// The report callback fires once per page with cumulative progress.
func (f *Feed) Scrape(ctx context.Context, report scrape.ProgressFunc) ([]domain.Course, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var courses []domain.Course
	total := 0
	for pageNum := 1; ; pageNum++ {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		u, err := pageURL(f.URL, pageNum, size)
		if err != nil {
			return nil, err
		}

		var p page
		if err := httpx.GetJSON(ctx, client, u, &p, f.Retry); err != nil {
			return nil, fmt.Errorf("feed %s: page %d: %w", f.Source, pageNum, err)
		}

		if p.Total > 0 {
			total = p.Total
		}
		for _, fc := range p.Courses {
			courses = append(courses, fc.toDomain(f.Source))
		}
		report(len(courses), total)

		if len(p.Courses) == 0 || (total > 0 && len(courses) >= total) {
			return courses, nil
		}
	}
}

func pageURL(base string, pageNum, size int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("feed: parse url %q: %w", base, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (fc feedCourse) toDomain(source string) domain.Course {
	return domain.Course{
		Source:      source,
		ID:          fc.ID,
		URL:         fc.URL,
		Title:       fc.Title,
		Category:    fc.Category,
		Language:    fc.Language,
		Instructor:  fc.Instructor,
		Rating:      fc.Rating,
		Price:       domain.Price{Amount: fc.Price, Currency: fc.Currency, Discounted: fc.Discounted},
		LastUpdated: parseUpdated(fc.LastUpdated),
	}
}

// parseUpdated accepts the timestamp formats feeds use in the wild. An
// unparseable value becomes the zero time, which the filter treats as
// "staleness unknown".
func parseUpdated(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
