package scrape

// Status is the lifecycle phase of one site task.
//
// Valid transitions:
//
//	Pending -> Initializing -> Scraping -> Completed
//	                       \-> Error (at any point)
type Status string

const (
	StatusPending      Status = "Pending"
	StatusInitializing Status = "Initializing"
	StatusScraping     Status = "Scraping"
	StatusCompleted    Status = "Completed"
	StatusError        Status = "Error"
)

// SiteState is the observable state of one site task. It is written only by
// the task that owns it; the coordinator observes snapshots via a channel.
type SiteState struct {
	// Total is the expected item count. 0 means not yet known; -1 means
	// the task failed during initialization, before any item was scraped.
	Total    int
	Progress int
	Done     bool
	Err      string
	Status   Status
}

// Terminal reports whether the task has reached a final state.
func (s SiteState) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}
