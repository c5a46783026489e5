package progress

import "log"

// LogReporter writes progress events to a standard logger. It is what the
// CLI uses when no richer sink is configured.
type LogReporter struct {
	Logger *log.Logger // nil means log.Default()
}

func (r LogReporter) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func (r LogReporter) SiteProgress(ev SiteEvent) {
	if ev.Error != "" {
		r.logger().Printf("%s: %s (%d/%d) error: %s", ev.Source, ev.Status, ev.Scraped, ev.Total, ev.Error)
		return
	}
	r.logger().Printf("%s: %s (%d/%d)", ev.Source, ev.Status, ev.Scraped, ev.Total)
}

func (r LogReporter) EnrollmentProgress(ev EnrollEvent) {
	r.logger().Printf("enroll: %d/%d processed, enrolled=%d already=%d expired=%d excluded=%d saved=%.2f %s",
		ev.TotalProcessed, ev.TotalToProcess,
		ev.SuccessfullyEnrolled, ev.AlreadyEnrolled, ev.Expired, ev.Excluded,
		ev.AmountSaved, ev.Currency)
}

func (r LogReporter) Warn(source, message string) {
	r.logger().Printf("warn: %s: %s", source, message)
}
