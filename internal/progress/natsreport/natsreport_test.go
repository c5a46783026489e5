package natsreport

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"course-enroller/internal/progress"
)

type fakeConn struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = make(map[string][][]byte)
	}
	f.messages[subject] = append(f.messages[subject], data)
	return nil
}

func (f *fakeConn) bySubject(subject string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[subject]
}

func TestReporterSubjects(t *testing.T) {
	conn := &fakeConn{}
	r := &Reporter{Conn: conn}

	r.SiteProgress(progress.SiteEvent{Source: "alpha", Status: "Scraping", Scraped: 3, Total: 10})
	r.EnrollmentProgress(progress.EnrollEvent{SuccessfullyEnrolled: 2, Status: "Enrolling"})
	r.Warn("beta", "dropped")

	if got := conn.bySubject("enroller.sites.alpha"); len(got) != 1 {
		t.Fatalf("Expected 1 site message, got %d", len(got))
	}
	if got := conn.bySubject("enroller.stats"); len(got) != 1 {
		t.Fatalf("Expected 1 stats message, got %d", len(got))
	}
	if got := conn.bySubject("enroller.warnings"); len(got) != 1 {
		t.Fatalf("Expected 1 warning message, got %d", len(got))
	}
}

func TestReporterPayloadShape(t *testing.T) {
	conn := &fakeConn{}
	r := &Reporter{Conn: conn, Prefix: "duce"}

	r.EnrollmentProgress(progress.EnrollEvent{
		SuccessfullyEnrolled: 4,
		AmountSaved:          59.96,
		Currency:             "USD",
		Status:               "Enrolling",
	})

	msgs := conn.bySubject("duce.stats")
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message under the custom prefix, got %d", len(msgs))
	}

	var payload map[string]any
	if err := json.Unmarshal(msgs[0], &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload["successfully_enrolled_c"] != float64(4) {
		t.Errorf("Unexpected successfully_enrolled_c: %v", payload["successfully_enrolled_c"])
	}
	if payload["amount_saved_c"] != 59.96 {
		t.Errorf("Unexpected amount_saved_c: %v", payload["amount_saved_c"])
	}
}

func TestReporterSurvivesPublishFailure(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection closed")}
	r := &Reporter{Conn: conn}

	// Must not panic or block.
	r.SiteProgress(progress.SiteEvent{Source: "alpha"})
	r.Warn("alpha", "still down")
}
