package enroll

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"course-enroller/internal/domain"
	"course-enroller/internal/filter"
	"course-enroller/internal/progress"
)

// PendingWindowSize bounds how many accepted candidates may sit between
// admission and a resolved API call. It is the backpressure valve that keeps
// the engine from racing ahead of the remote service.
const PendingWindowSize = 5

// ConvertFunc converts an amount between currencies. The default keeps the
// amount unchanged, which matches sources that already report prices in the
// session currency.
type ConvertFunc func(amount float64, from, to string) float64

// Engine runs the enrollment phase: candidates flow from the ledger through
// the filter into a bounded pending window, then one at a time into the API.
// Enrollment is deliberately sequential; concurrent attempts risk duplicate
// submissions and provider throttling.
type Engine struct {
	API      API
	Filter   filter.Config
	Reporter progress.Reporter

	// Limiter paces API calls. Nil disables pacing.
	Limiter *rate.Limiter

	// Currency tags AmountSaved; it comes from the caller's session.
	Currency string

	// Convert translates saved amounts into the session currency.
	// Nil means identity.
	Convert ConvertFunc

	mu    sync.Mutex
	stats Stats
}

// Stats returns a snapshot of the running counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Run processes every ledger candidate in arrival order and returns the
// final statistics. The returned error is nil on normal completion; it wraps
// ErrSessionExpired on a fatal auth failure and the context error on
// cancellation. Counters only ever increase during a run and a progress
// event fires synchronously after every outcome.
func (e *Engine) Run(ctx context.Context, ledger *domain.Ledger) (Stats, error) {
	reporter := e.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	candidates := ledger.Ordered()

	e.mu.Lock()
	e.stats = Stats{
		Currency:       e.Currency,
		TotalToProcess: len(candidates),
		Status:         "Enrolling",
	}
	e.mu.Unlock()

	admitCtx, stopAdmitting := context.WithCancel(ctx)
	defer stopAdmitting()

	// The window: up to 4 buffered plus the one candidate in the API's
	// hands makes 5 unresolved at most.
	window := make(chan domain.Course, PendingWindowSize-1)

	go func() {
		defer close(window)
		for _, c := range candidates {
			if admitCtx.Err() != nil {
				return
			}
			if !e.Filter.Accept(c) {
				e.update(reporter, func(s *Stats) {
					s.Excluded++
					s.TotalProcessed++
				})
				continue
			}
			select {
			case window <- c:
				e.update(reporter, func(s *Stats) { s.Pending++ })
			case <-admitCtx.Done():
				return
			}
		}
	}()

	for c := range window {
		// Cancellation stops admission above; here it also stops the
		// drain, discarding already-admitted candidates.
		if err := ctx.Err(); err != nil {
			return e.finish(reporter, err)
		}

		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx); err != nil {
				return e.finish(reporter, err)
			}
		}

		course := c
		e.update(reporter, func(s *Stats) { s.Current = &course })

		res, err := e.API.Enroll(ctx, c)
		switch {
		case err == nil:
			e.record(reporter, c, res)
		case errors.Is(err, ErrSessionExpired):
			stopAdmitting()
			st, _ := e.finish(reporter, err)
			return st, fmt.Errorf("enroll %q: %w", c.Title, err)
		default:
			// Transient: warn, skip, keep going. No retry here.
			reporter.Warn(c.Source, fmt.Sprintf("enroll %q skipped: %v", c.Title, err))
			e.update(reporter, func(s *Stats) {
				s.Pending--
				s.TotalProcessed++
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return e.finish(reporter, err)
	}
	return e.finish(reporter, nil)
}

// record applies one resolved outcome to the stats.
func (e *Engine) record(reporter progress.Reporter, c domain.Course, res Result) {
	e.update(reporter, func(s *Stats) {
		s.Pending--
		s.TotalProcessed++
		switch res.Outcome {
		case OutcomeSuccess:
			s.SuccessfullyEnrolled++
			amount, currency := res.AmountSaved, res.Currency
			if amount == 0 {
				amount, currency = c.Price.Amount, c.Price.Currency
			}
			s.AmountSaved += e.convert(amount, currency)
		case OutcomeAlreadyEnrolled:
			s.AlreadyEnrolled++
		case OutcomeExpired:
			s.Expired++
		}
	})
}

func (e *Engine) convert(amount float64, from string) float64 {
	if e.Convert == nil {
		return amount
	}
	return e.Convert(amount, from, e.Currency)
}

// update mutates the stats and pushes a snapshot event while holding the
// lock, so observers always see counters in increasing order.
func (e *Engine) update(reporter progress.Reporter, fn func(*Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.stats)
	reporter.EnrollmentProgress(e.stats.Event())
}

func (e *Engine) finish(reporter progress.Reporter, err error) (Stats, error) {
	e.update(reporter, func(s *Stats) {
		s.Current = nil
		if err != nil {
			s.Status = fmt.Sprintf("Error: %v", err)
		} else {
			s.Status = "Finished"
		}
	})
	return e.Stats(), err
}
