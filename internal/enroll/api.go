// Package enroll consumes the deduplicated candidate ledger and drives a
// filtered, rate-limited enrollment loop against an external enrollment API.
package enroll

import (
	"context"
	"errors"
	"fmt"

	"course-enroller/internal/domain"
)

// Outcome classifies one enrollment attempt the API resolved normally.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeAlreadyEnrolled
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyEnrolled:
		return "already enrolled"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Result is the API's answer for one candidate.
type Result struct {
	Outcome Outcome

	// AmountSaved is the list price the API reports was discounted away on
	// a successful enrollment, in Currency. When the API leaves it zero the
	// engine falls back to the candidate's own list price.
	AmountSaved float64
	Currency    string
}

// API is the external enrollment collaborator. Enroll either resolves the
// candidate (Result) or fails: a *TransientError skips the candidate and the
// run continues, anything wrapping ErrSessionExpired aborts the run.
type API interface {
	Enroll(ctx context.Context, c domain.Course) (Result, error)
}

// ErrSessionExpired marks a fatal authentication failure. Callers should
// trigger re-authentication rather than retrying the run.
var ErrSessionExpired = errors.New("session invalid")

// TransientError is a recoverable enrollment failure for one candidate.
// The engine surfaces it as a warning and moves on; retry policy belongs to
// the collaborator, not to this package.
type TransientError struct {
	Reason string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient enrollment error: %s", e.Reason)
}
