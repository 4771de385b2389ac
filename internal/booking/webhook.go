package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/set-night/timetravel/internal/domain"
)

// Submission is the fixed record posted to the booking webhook.
type Submission struct {
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	Destination     string      `json:"destination"`
	StartDate       string      `json:"startDate"`
	EndDate         string      `json:"endDate"`
	DurationDays    int         `json:"durationDays"`
	NumTravelers    int         `json:"numTravelers"`
	TotalPrice      json.Number `json:"totalPrice"`
	SpecialRequests string      `json:"specialRequests"`
}

// NewSubmission builds the webhook record from a validated form. The
// destination is sent by label.
func NewSubmission(f Form, q Quote) Submission {
	label := string(f.Destination)
	if d, err := Lookup(f.Destination); err == nil {
		label = d.Label
	}
	return Submission{
		CustomerName:    f.FullName,
		CustomerEmail:   f.Email,
		Destination:     label,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		DurationDays:    q.Days,
		NumTravelers:    f.Travelers,
		TotalPrice:      json.Number(q.Total.String()),
		SpecialRequests: f.Notes,
	}
}

type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts the record once. Any failure is reported as ErrSubmission.
func (w *Webhook) Submit(ctx context.Context, s Submission) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrSubmission, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmission, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: webhook returned status %d", domain.ErrSubmission, resp.StatusCode)
	}
	return nil
}
