package enroll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"course-enroller/internal/domain"
	"course-enroller/internal/httpx"
)

// Client talks to the remote enrollment service over HTTP. It implements
// API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Retry   httpx.RetryConfig
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP: &http.Client{
			Timeout: 2 * time.Minute, // per-request
		},
		Retry: httpx.DefaultRetryConfig(),
	}
}

type enrollRequest struct {
	Source   string `json:"source"`
	CourseID string `json:"course_id,omitempty"`
	URL      string `json:"url"`
}

type enrollResponse struct {
	Result      string  `json:"result"`
	AmountSaved float64 `json:"amount_saved"`
	Currency    string  `json:"currency"`
}

// Enroll submits one candidate. Auth failures wrap ErrSessionExpired;
// anything else that goes wrong after retries comes back as a
// *TransientError so the engine skips the candidate and keeps going.
func (c *Client) Enroll(ctx context.Context, course domain.Course) (Result, error) {
	payload, err := json.Marshal(enrollRequest{
		Source:   course.Source,
		CourseID: course.ID,
		URL:      course.URL,
	})
	if err != nil {
		return Result{}, fmt.Errorf("enroll: marshal request: %w", err)
	}

	buildReq := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/enroll", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		return req, nil
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	_, body, err := httpx.DoWithRetry(ctx, client, buildReq, c.Retry)
	if err != nil {
		var herr *httpx.HTTPError
		if errors.As(err, &herr) {
			if herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden {
				return Result{}, fmt.Errorf("enroll: status %d: %w", herr.StatusCode, ErrSessionExpired)
			}
			return Result{}, &TransientError{Reason: fmt.Sprintf("status %d", herr.StatusCode)}
		}
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		return Result{}, &TransientError{Reason: err.Error()}
	}

	var resp enrollResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, &TransientError{Reason: fmt.Sprintf("bad response: %v", err)}
	}

	outcome, err := parseResult(resp.Result)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Outcome:     outcome,
		AmountSaved: resp.AmountSaved,
		Currency:    resp.Currency,
	}, nil
}

func parseResult(s string) (Outcome, error) {
	switch s {
	case "enrolled":
		return OutcomeSuccess, nil
	case "already_enrolled":
		return OutcomeAlreadyEnrolled, nil
	case "expired":
		return OutcomeExpired, nil
	default:
		return OutcomeUnknown, &TransientError{Reason: fmt.Sprintf("unknown result %q", s)}
	}
}
