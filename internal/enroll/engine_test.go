package enroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"course-enroller/internal/domain"
	"course-enroller/internal/filter"
	"course-enroller/internal/progress"
)

// mockAPI is a test implementation of the enrollment API.
type mockAPI struct {
	mu         sync.Mutex
	enrollFunc func(ctx context.Context, c domain.Course) (Result, error)
	calls      []string
}

func (m *mockAPI) Enroll(ctx context.Context, c domain.Course) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c.Title)
	m.mu.Unlock()
	return m.enrollFunc(ctx, c)
}

func (m *mockAPI) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// recordingReporter captures pushed enrollment events and warnings.
type recordingReporter struct {
	mu     sync.Mutex
	events []progress.EnrollEvent
	warns  []string
}

func (r *recordingReporter) SiteProgress(progress.SiteEvent) {}

func (r *recordingReporter) EnrollmentProgress(ev progress.EnrollEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) Warn(source, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, source+": "+message)
}

func (r *recordingReporter) maxPending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, ev := range r.events {
		if ev.Pending > max {
			max = ev.Pending
		}
	}
	return max
}

func (r *recordingReporter) latestPending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return 0
	}
	return r.events[len(r.events)-1].Pending
}

func ledgerOf(courses ...domain.Course) *domain.Ledger {
	l := domain.NewLedger()
	for _, c := range courses {
		l.Add(c)
	}
	return l
}

func testCourse(title string, price float64) domain.Course {
	return domain.Course{
		URL:   "https://www.udemy.com/course/" + strings.ToLower(title) + "/",
		Title: title,
		Price: domain.Price{Amount: price, Currency: "USD", Discounted: true},
	}
}

func TestEngineOutcomes(t *testing.T) {
	a := testCourse("A", 19.99)
	b := testCourse("B", 12.99)
	c := testCourse("C", 84.99)

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		switch c.Title {
		case "A":
			return Result{Outcome: OutcomeSuccess}, nil
		case "B":
			return Result{Outcome: OutcomeAlreadyEnrolled}, nil
		default:
			return Result{Outcome: OutcomeExpired}, nil
		}
	}}

	e := &Engine{API: api, Currency: "USD"}
	stats, err := e.Run(context.Background(), ledgerOf(a, b, c))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.SuccessfullyEnrolled != 1 || stats.AlreadyEnrolled != 1 || stats.Expired != 1 {
		t.Errorf("Unexpected counters: %+v", stats)
	}
	if stats.TotalProcessed != 3 || stats.TotalToProcess != 3 {
		t.Errorf("Expected 3/3 processed, got %d/%d", stats.TotalProcessed, stats.TotalToProcess)
	}
	// Only the Success outcome contributes to the amount saved.
	if stats.AmountSaved != 19.99 {
		t.Errorf("Expected AmountSaved 19.99, got %.2f", stats.AmountSaved)
	}
	if stats.Status != "Finished" {
		t.Errorf("Expected status Finished, got %q", stats.Status)
	}
}

// AlreadyEnrolled increments its counter, leaves amount_saved untouched and
// still counts as processed.
func TestEngineAlreadyEnrolledScenario(t *testing.T) {
	e2 := testCourse("E", 49.99)
	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		return Result{Outcome: OutcomeAlreadyEnrolled}, nil
	}}

	e := &Engine{API: api, Currency: "USD"}
	stats, err := e.Run(context.Background(), ledgerOf(e2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.AlreadyEnrolled != 1 {
		t.Errorf("Expected already_enrolled=1, got %d", stats.AlreadyEnrolled)
	}
	if stats.AmountSaved != 0 {
		t.Errorf("Expected amount_saved unchanged, got %.2f", stats.AmountSaved)
	}
	if stats.TotalProcessed != 1 {
		t.Errorf("Expected totalProcessed=1, got %d", stats.TotalProcessed)
	}
}

func TestEngineExcludedNeverReachesAPI(t *testing.T) {
	byX := testCourse("ByX", 10)
	byX.Instructor = "X"
	ok := testCourse("OK", 10)
	ok.Instructor = "Someone Else"

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		return Result{Outcome: OutcomeSuccess}, nil
	}}

	e := &Engine{
		API:    api,
		Filter: filter.Config{InstructorExclude: []string{"x"}},
	}
	stats, err := e.Run(context.Background(), ledgerOf(byX, ok))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Excluded != 1 {
		t.Errorf("Expected excluded=1, got %d", stats.Excluded)
	}
	calls := api.called()
	if len(calls) != 1 || calls[0] != "OK" {
		t.Errorf("Expected API to see only OK, got %v", calls)
	}
	if stats.TotalProcessed != 2 {
		t.Errorf("Expected both candidates counted as processed, got %d", stats.TotalProcessed)
	}
}

func TestEngineTransientErrorSkips(t *testing.T) {
	a := testCourse("A", 10)
	b := testCourse("B", 20)

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		if c.Title == "A" {
			return Result{}, &TransientError{Reason: "502 from provider"}
		}
		return Result{Outcome: OutcomeSuccess}, nil
	}}

	rep := &recordingReporter{}
	e := &Engine{API: api, Reporter: rep, Currency: "USD"}
	stats, err := e.Run(context.Background(), ledgerOf(a, b))
	if err != nil {
		t.Fatalf("Expected transient errors to be absorbed, got %v", err)
	}

	if stats.SuccessfullyEnrolled != 1 {
		t.Errorf("Expected 1 success, got %d", stats.SuccessfullyEnrolled)
	}
	if stats.TotalProcessed != 2 {
		t.Errorf("Expected skipped candidate still processed, got %d", stats.TotalProcessed)
	}
	if stats.AmountSaved != 20 {
		t.Errorf("Expected only B's price saved, got %.2f", stats.AmountSaved)
	}

	rep.mu.Lock()
	warns := append([]string(nil), rep.warns...)
	rep.mu.Unlock()
	if len(warns) != 1 || !strings.Contains(warns[0], "A") {
		t.Errorf("Expected one warning about A, got %v", warns)
	}
}

func TestEngineFatalAuthAborts(t *testing.T) {
	a := testCourse("A", 10)
	b := testCourse("B", 20)
	c := testCourse("C", 30)

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		if c.Title == "B" {
			return Result{}, fmt.Errorf("refresh token: %w", ErrSessionExpired)
		}
		return Result{Outcome: OutcomeSuccess}, nil
	}}

	e := &Engine{API: api, Currency: "USD"}
	stats, err := e.Run(context.Background(), ledgerOf(a, b, c))
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got %v", err)
	}
	if !strings.HasPrefix(stats.Status, "Error:") || !strings.Contains(stats.Status, "session invalid") {
		t.Errorf("Expected session-invalid error status, got %q", stats.Status)
	}

	calls := api.called()
	for _, title := range calls {
		if title == "C" {
			t.Error("Expected no API call after the fatal auth failure")
		}
	}
	if stats.SuccessfullyEnrolled != 1 {
		t.Errorf("Expected 1 success before the abort, got %d", stats.SuccessfullyEnrolled)
	}
}

// The pending window must never hold more than 5 unresolved candidates,
// even when the API is much slower than admission.
func TestEnginePendingWindowBound(t *testing.T) {
	var courses []domain.Course
	for i := 0; i < 20; i++ {
		courses = append(courses, testCourse(fmt.Sprintf("Course%02d", i), 1))
	}

	release := make(chan struct{})
	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		return Result{Outcome: OutcomeSuccess}, nil
	}}

	rep := &recordingReporter{}
	e := &Engine{API: api, Reporter: rep, Currency: "USD"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(context.Background(), ledgerOf(courses...))
	}()

	// Let the producer fill the window while the API is stuck.
	deadline := time.After(2 * time.Second)
	for rep.latestPending() < PendingWindowSize {
		select {
		case <-deadline:
			t.Fatalf("Window never filled, pending=%d", rep.latestPending())
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish")
	}

	if max := rep.maxPending(); max > PendingWindowSize {
		t.Errorf("Pending window exceeded %d: observed %d", PendingWindowSize, max)
	}
}

func TestEngineCurrencyConversion(t *testing.T) {
	a := testCourse("A", 0)

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		return Result{Outcome: OutcomeSuccess, AmountSaved: 100, Currency: "INR"}, nil
	}}

	e := &Engine{
		API:      api,
		Currency: "USD",
		Convert: func(amount float64, from, to string) float64 {
			if from == "INR" && to == "USD" {
				return amount / 80
			}
			return amount
		},
	}
	stats, err := e.Run(context.Background(), ledgerOf(a))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.AmountSaved != 1.25 {
		t.Errorf("Expected 1.25 USD saved, got %.2f", stats.AmountSaved)
	}
	if stats.Currency != "USD" {
		t.Errorf("Expected session currency USD, got %q", stats.Currency)
	}
}

func TestEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	api := &mockAPI{enrollFunc: func(ctx context.Context, c domain.Course) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}}

	var courses []domain.Course
	for i := 0; i < 10; i++ {
		courses = append(courses, testCourse(fmt.Sprintf("C%d", i), 1))
	}

	e := &Engine{API: api, Currency: "USD"}
	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		_, runErr = e.Run(ctx, ledgerOf(courses...))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", runErr)
	}
}
