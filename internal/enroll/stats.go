package enroll

import (
	"course-enroller/internal/domain"
	"course-enroller/internal/progress"
)

// Stats are the running counters for one enrollment run. The engine is the
// only writer; readers get copies via Engine.Stats.
type Stats struct {
	SuccessfullyEnrolled int
	AlreadyEnrolled      int
	Expired              int
	Excluded             int

	AmountSaved float64
	Currency    string

	TotalToProcess int
	TotalProcessed int

	// Pending counts candidates admitted to the window but not yet
	// resolved by the API.
	Pending int

	// Current is the candidate most recently handed to the API.
	Current *domain.Course

	// Status is "Idle", "Enrolling", "Finished" or "Error: <reason>".
	Status string
}

// Event flattens the stats into the reporting payload.
func (s Stats) Event() progress.EnrollEvent {
	ev := progress.EnrollEvent{
		SuccessfullyEnrolled: s.SuccessfullyEnrolled,
		AlreadyEnrolled:      s.AlreadyEnrolled,
		Expired:              s.Expired,
		Excluded:             s.Excluded,
		AmountSaved:          s.AmountSaved,
		Currency:             s.Currency,
		TotalProcessed:       s.TotalProcessed,
		TotalToProcess:       s.TotalToProcess,
		Pending:              s.Pending,
		Status:               s.Status,
	}
	if s.Current != nil {
		ev.CurrentTitle = s.Current.Title
		ev.CurrentURL = s.Current.URL
	}
	return ev
}
