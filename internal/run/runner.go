// Package run ties one scrape pass and one enrollment pass together into a
// single observable run, and answers status queries while it is in flight.
package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"course-enroller/internal/domain"
	"course-enroller/internal/enroll"
	"course-enroller/internal/filter"
	"course-enroller/internal/progress"
	"course-enroller/internal/scrape"
)

// ErrRunInProgress is returned by Do when a run is already active. Runs do
// not queue; callers retry after the current run finishes.
var ErrRunInProgress = errors.New("run already in progress")

// Runner owns the full pipeline for one run: scrape all sites, merge into a
// ledger, then enroll sequentially. Every Do call starts from a clean slate;
// nothing carries over between runs except the configuration.
type Runner struct {
	Scrapers []scrape.Scraper
	API      enroll.API
	Filter   filter.Config

	// Reporter receives the live event stream. The runner also keeps its
	// own latest-state snapshots for the query methods below.
	Reporter progress.Reporter

	// Limiter paces enrollment API calls. Nil disables pacing.
	Limiter *rate.Limiter

	Currency string
	Convert  enroll.ConvertFunc

	// EmitInterval and GracePeriod are passed through to the scrape
	// coordinator. Zero means its defaults.
	EmitInterval time.Duration
	GracePeriod  time.Duration

	mu         sync.Mutex
	running    bool
	id         string
	status     string
	sites      map[string]progress.SiteEvent
	stats      progress.EnrollEvent
	candidates []domain.Course
}

// RunID identifies the current (or most recent) run. Empty before the first.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Status reports the run phase: "Idle", "Scraping", "Enrolling", "Finished"
// or "Error: <reason>".
func (r *Runner) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == "" {
		return "Idle"
	}
	return r.status
}

// GetStats returns the latest enrollment statistics snapshot.
func (r *Runner) GetStats() progress.EnrollEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// GetSiteProgress returns the latest observed state of every site task,
// keyed by source name.
func (r *Runner) GetSiteProgress() map[string]progress.SiteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]progress.SiteEvent, len(r.sites))
	for k, v := range r.sites {
		out[k] = v
	}
	return out
}

// Candidates returns the merged candidate list of the current (or most
// recent) run, in arrival order.
func (r *Runner) Candidates() []domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Course(nil), r.candidates...)
}

// Do executes one run and returns the final enrollment statistics. A scrape
// failure that drops every source, a fatal auth failure and cancellation all
// surface as the returned error; single-site failures only degrade coverage
// and show up as warnings.
func (r *Runner) Do(ctx context.Context) (enroll.Stats, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return enroll.Stats{}, ErrRunInProgress
	}
	r.running = true
	r.id = uuid.NewString()
	r.status = "Scraping"
	r.sites = make(map[string]progress.SiteEvent, len(r.Scrapers))
	r.stats = progress.EnrollEvent{}
	r.candidates = nil
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	next := r.Reporter
	if next == nil {
		next = progress.Nop{}
	}
	tr := &tracker{runner: r, next: next}

	coord := &scrape.Coordinator{
		Reporter:     tr,
		EmitInterval: r.EmitInterval,
		GracePeriod:  r.GracePeriod,
	}
	ledger, sourceErrors, err := coord.Run(ctx, r.Scrapers)
	if err != nil {
		r.setStatus(fmt.Sprintf("Error: %v", err))
		return enroll.Stats{}, err
	}
	for _, se := range sourceErrors {
		tr.Warn(se.Source, se.Message)
	}
	r.mu.Lock()
	r.candidates = ledger.Ordered()
	r.mu.Unlock()

	r.setStatus("Enrolling")
	engine := &enroll.Engine{
		API:      r.API,
		Filter:   r.Filter,
		Reporter: tr,
		Limiter:  r.Limiter,
		Currency: r.Currency,
		Convert:  r.Convert,
	}
	stats, err := engine.Run(ctx, ledger)
	r.setStatus(stats.Status)
	return stats, err
}

func (r *Runner) setStatus(s string) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// tracker mirrors every event into the runner's snapshots before forwarding
// it to the configured reporter.
type tracker struct {
	runner *Runner
	next   progress.Reporter
}

func (t *tracker) SiteProgress(ev progress.SiteEvent) {
	t.runner.mu.Lock()
	t.runner.sites[ev.Source] = ev
	t.runner.mu.Unlock()
	t.next.SiteProgress(ev)
}

func (t *tracker) EnrollmentProgress(ev progress.EnrollEvent) {
	t.runner.mu.Lock()
	t.runner.stats = ev
	t.runner.mu.Unlock()
	t.next.EnrollmentProgress(ev)
}

func (t *tracker) Warn(source, message string) {
	t.next.Warn(source, message)
}
