package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/set-night/timetravel/internal/domain"
)

// Gateway turns a role-tagged history into a completion. Implementations
// make exactly one attempt per call.
type Gateway interface {
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}

// ErrEmptyCompletion is returned when the endpoint succeeded but supplied no
// usable text.
var ErrEmptyCompletion = errors.New("empty completion")

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError reports an error status from the completion endpoint. Err
// optionally carries the cause when the endpoint runs in-process.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream failure (%d)", e.Status)
	}
	return fmt.Sprintf("upstream failure (%d): %s", e.Status, e.Message)
}

// FailureKind names the gateway failure class of err for diagnostics.
func FailureKind(err error) string {
	var te *TransportError
	var ue *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty_completion"
	case errors.As(err, &ue):
		return "upstream"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	default:
		return "unknown"
	}
}

type completionRequest struct {
	Messages []domain.Turn `json:"messages"`
}

type completionResponse struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// HTTPGateway talks to the /api/chat proxy endpoint.
type HTTPGateway struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPGateway(endpoint string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	for _, t := range turns {
		if !t.Role.Valid() {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidRole, t.Role)
		}
	}

	payload, err := json.Marshal(completionRequest{Messages: turns})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	var data completionResponse
	decodeErr := json.Unmarshal(body, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Message: data.Error}
	}
	if decodeErr != nil {
		return "", &UpstreamError{Status: resp.StatusCode}
	}
	if data.Error != "" {
		return "", &UpstreamError{Status: resp.StatusCode, Message: data.Error}
	}
	if strings.TrimSpace(data.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return data.Content, nil
}
