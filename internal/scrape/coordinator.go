package scrape

import (
	"context"
	"time"

	"course-enroller/internal/concurrency"
	"course-enroller/internal/domain"
	"course-enroller/internal/progress"
)

const (
	defaultEmitInterval = 100 * time.Millisecond
	defaultGracePeriod  = 500 * time.Millisecond

	errTaskDied = "task died unexpectedly"
)

// Coordinator launches one task per site, observes the tasks' state
// transitions over a channel, and merges the results into a ledger once
// every task has reached a terminal state.
type Coordinator struct {
	Reporter progress.Reporter

	// EmitInterval throttles non-terminal progress events per source.
	// Zero means the 100ms default.
	EmitInterval time.Duration

	// GracePeriod bounds how long the coordinator waits for a task that
	// finished without reaching a terminal state before declaring it dead.
	// Zero means the 500ms default.
	GracePeriod time.Duration
}

type update struct {
	source string
	state  SiteState
}

type taskResult struct {
	courses []domain.Course
	state   SiteState
}

// Run scrapes all sites concurrently and returns the merged candidate
// ledger plus the per-site errors of any sources that failed. A single
// failed site only degrades coverage; the error return is non-nil only when
// every site failed (*domain.NoCandidatesError) or ctx was cancelled.
func (c *Coordinator) Run(ctx context.Context, scrapers []Scraper) (*domain.Ledger, []domain.SourceError, error) {
	reporter := c.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	states := make(map[string]SiteState, len(scrapers))
	lastEmit := make(map[string]time.Time, len(scrapers))
	for _, s := range scrapers {
		st := SiteState{Status: StatusPending}
		states[s.Name()] = st
		c.emit(reporter, lastEmit, s.Name(), st, true)
	}

	updates := make(chan update, 4*len(scrapers)+16)
	results := make([]taskResult, len(scrapers))

	fanout := make(chan struct{})
	go func() {
		defer close(fanout)
		concurrency.ForEach(ctx, scrapers, concurrency.ParallelOptions{MaxWorkers: len(scrapers)},
			func(ctx context.Context, i int, s Scraper) error {
				courses, st := runTask(ctx, s, updates)
				results[i] = taskResult{courses: courses, state: st}
				return nil
			})
	}()

	// Monitor loop: observe transitions until every task goroutine returned.
	running := true
	for running {
		select {
		case <-ctx.Done():
			// Abandon in-flight tasks; their results are discarded.
			return nil, nil, ctx.Err()
		case u := <-updates:
			states[u.source] = u.state
			c.emit(reporter, lastEmit, u.source, u.state, u.state.Terminal())
		case <-fanout:
			running = false
		}
	}

	// Drain whatever the tasks managed to send before returning.
drain:
	for {
		select {
		case u := <-updates:
			states[u.source] = u.state
			c.emit(reporter, lastEmit, u.source, u.state, u.state.Terminal())
		default:
			break drain
		}
	}

	// Liveness guard: a task that returned without a terminal state gets a
	// bounded grace period, then counts as dead.
	if c.forceTerminal(ctx, scrapers, states, results, updates) {
		for _, s := range scrapers {
			st := states[s.Name()]
			c.emit(reporter, lastEmit, s.Name(), st, true)
		}
	}

	return c.merge(scrapers, states, results)
}

// forceTerminal marks non-terminal tasks as dead after the grace period.
// Returns true when any state was rewritten.
func (c *Coordinator) forceTerminal(ctx context.Context, scrapers []Scraper, states map[string]SiteState, results []taskResult, updates <-chan update) bool {
	stuck := false
	for _, s := range scrapers {
		if !states[s.Name()].Terminal() {
			stuck = true
			break
		}
	}
	if !stuck {
		return false
	}

	grace := c.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	deadline := time.NewTimer(grace)
	defer deadline.Stop()
	for {
		select {
		case u := <-updates:
			states[u.source] = u.state
		case <-deadline.C:
			goto expired
		case <-ctx.Done():
			goto expired
		}
	}
expired:

	forced := false
	for i, s := range scrapers {
		st := states[s.Name()]
		if st.Terminal() {
			continue
		}
		if st.Total == 0 && st.Progress == 0 {
			st.Total = -1
		}
		st.Err = errTaskDied
		st.Done = true
		st.Status = StatusError
		states[s.Name()] = st
		results[i].state = st
		results[i].courses = nil
		forced = true
	}
	return forced
}

func (c *Coordinator) merge(scrapers []Scraper, states map[string]SiteState, results []taskResult) (*domain.Ledger, []domain.SourceError, error) {
	ledger := domain.NewLedger()
	var srcErrs []domain.SourceError

	for i, s := range scrapers {
		st := states[s.Name()]
		if st.Err != "" {
			srcErrs = append(srcErrs, domain.SourceError{Source: s.Name(), Message: st.Err})
			continue
		}
		for _, course := range results[i].courses {
			ledger.Add(course)
		}
	}

	if len(scrapers) > 0 && len(srcErrs) == len(scrapers) {
		return nil, srcErrs, &domain.NoCandidatesError{Sources: srcErrs}
	}
	return ledger, srcErrs, nil
}

// emit forwards a state snapshot to the reporter, dropping non-forced events
// that arrive within the per-source throttle interval.
func (c *Coordinator) emit(reporter progress.Reporter, lastEmit map[string]time.Time, source string, st SiteState, force bool) {
	interval := c.EmitInterval
	if interval <= 0 {
		interval = defaultEmitInterval
	}
	now := time.Now()
	if !force && now.Sub(lastEmit[source]) < interval {
		return
	}
	lastEmit[source] = now
	reporter.SiteProgress(progress.SiteEvent{
		Source:  source,
		Status:  string(st.Status),
		Scraped: st.Progress,
		Total:   st.Total,
		Done:    st.Done,
		Error:   st.Err,
	})
}

// runTask drives one scraper through the state machine. The returned state
// is always terminal: scraper panics are recovered and reported as the task
// having died.
func runTask(ctx context.Context, s Scraper, updates chan<- update) (courses []domain.Course, st SiteState) {
	name := s.Name()
	st = SiteState{Status: StatusInitializing}

	send := func() {
		select {
		case updates <- update{source: name, state: st}:
		case <-ctx.Done():
		}
	}
	send()

	defer func() {
		if r := recover(); r != nil {
			if st.Total == 0 && st.Progress == 0 {
				st.Total = -1
			}
			st.Err = errTaskDied
			st.Done = true
			st.Status = StatusError
			courses = nil
			send()
		}
	}()

	courses, err := s.Scrape(ctx, func(scraped, total int) {
		if total > 0 {
			st.Total = total
		}
		if scraped > st.Progress {
			st.Progress = scraped
		}
		if st.Status == StatusInitializing {
			st.Status = StatusScraping
		}
		send()
	})
	if err != nil {
		if st.Status == StatusInitializing {
			// Failed before scraping anything: init-error sentinel.
			st.Total = -1
		}
		st.Err = err.Error()
		st.Done = true
		st.Status = StatusError
		send()
		return nil, st
	}

	if st.Total <= 0 {
		st.Total = len(courses)
	}
	st.Progress = st.Total
	st.Done = true
	st.Status = StatusCompleted
	send()
	return courses, st
}
