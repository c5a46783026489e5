// Package natsreport publishes progress events to NATS subjects as JSON, so
// frontends and dashboards can watch a run without polling the process.
package natsreport

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"course-enroller/internal/progress"
)

const defaultPrefix = "enroller"

// Publisher is the slice of the NATS connection the reporter needs.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Reporter forwards every progress event to NATS:
//
//	<prefix>.sites.<source>  site task snapshots
//	<prefix>.stats           enrollment statistics snapshots
//	<prefix>.warnings        recoverable problems
//
// Publishing is fire and forget; a failed publish is logged and dropped so
// reporting never stalls a run.
type Reporter struct {
	Conn Publisher

	// Prefix overrides the default "enroller" subject prefix.
	Prefix string

	// Logger receives publish failures. Nil means the standard logger.
	Logger *log.Logger
}

// Connect dials a NATS server and wraps the connection in a Reporter.
func Connect(url string) (*Reporter, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("natsreport: connect %s: %w", url, err)
	}
	return &Reporter{Conn: nc}, nil
}

// Close releases the underlying connection when Connect created it.
func (r *Reporter) Close() {
	if nc, ok := r.Conn.(*nats.Conn); ok {
		nc.Close()
	}
}

func (r *Reporter) SiteProgress(ev progress.SiteEvent) {
	r.publish("sites."+ev.Source, ev)
}

func (r *Reporter) EnrollmentProgress(ev progress.EnrollEvent) {
	r.publish("stats", ev)
}

type warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

func (r *Reporter) Warn(source, message string) {
	r.publish("warnings", warning{Source: source, Message: message})
}

func (r *Reporter) publish(suffix string, v any) {
	prefix := r.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	subject := prefix + "." + suffix

	data, err := json.Marshal(v)
	if err != nil {
		r.logf("natsreport: marshal %s: %v", subject, err)
		return
	}
	if err := r.Conn.Publish(subject, data); err != nil {
		r.logf("natsreport: publish %s: %v", subject, err)
	}
}

func (r *Reporter) logf(format string, args ...any) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(format, args...)
}
