// Package progress defines the reporting boundary between the scrape/enroll
// core and whatever presentation layer is watching a run. The core pushes
// events through a Reporter; implementations must not block.
package progress

// SiteEvent is a snapshot of one site task's state, emitted on every
// observed transition (throttled by the coordinator).
type SiteEvent struct {
	Source  string `json:"source"`
	Status  string `json:"status"`
	Scraped int    `json:"current"`
	Total   int    `json:"total"` // 0 = not yet known, -1 = init failure
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

// EnrollEvent is a snapshot of the running enrollment statistics, emitted
// after every processed candidate.
type EnrollEvent struct {
	SuccessfullyEnrolled int     `json:"successfully_enrolled_c"`
	AlreadyEnrolled      int     `json:"already_enrolled_c"`
	Expired              int     `json:"expired_c"`
	Excluded             int     `json:"excluded_c"`
	AmountSaved          float64 `json:"amount_saved_c"`
	Currency             string  `json:"currency"`
	TotalProcessed       int     `json:"total_courses_processed"`
	TotalToProcess       int     `json:"total_courses_to_process"`
	Pending              int     `json:"pending_enrollment"`
	CurrentTitle         string  `json:"current_course_title"`
	CurrentURL           string  `json:"current_course_url"`
	Status               string  `json:"status"`
}

// Reporter receives progress events from the core. Implementations own any
// buffering; calls happen on the core's goroutines and must return quickly.
type Reporter interface {
	SiteProgress(ev SiteEvent)
	EnrollmentProgress(ev EnrollEvent)
	// Warn surfaces recoverable problems (transient enrollment errors,
	// dropped sources) that are not part of either snapshot.
	Warn(source, message string)
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) SiteProgress(SiteEvent)         {}
func (Nop) EnrollmentProgress(EnrollEvent) {}
func (Nop) Warn(string, string)            {}

// Multi fans events out to several reporters in order.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

type multi []Reporter

func (m multi) SiteProgress(ev SiteEvent) {
	for _, r := range m {
		r.SiteProgress(ev)
	}
}

func (m multi) EnrollmentProgress(ev EnrollEvent) {
	for _, r := range m {
		r.EnrollmentProgress(ev)
	}
}

func (m multi) Warn(source, message string) {
	for _, r := range m {
		r.Warn(source, message)
	}
}
