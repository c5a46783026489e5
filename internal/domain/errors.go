package domain

import (
	"fmt"
	"strings"
)

// SourceError records a per-site scrape failure. A single failed site
// degrades coverage but does not fail the run.
type SourceError struct {
	Source  string
	Message string
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// NoCandidatesError is returned when every configured site errored and the
// merged ledger is therefore empty. It is fatal to the run: no enrollment
// phase is attempted.
type NoCandidatesError struct {
	Sources []SourceError
}

func (e *NoCandidatesError) Error() string {
	msgs := make([]string, 0, len(e.Sources))
	for _, s := range e.Sources {
		msgs = append(msgs, s.Error())
	}
	return "no candidates: all sources failed: " + strings.Join(msgs, "; ")
}
