package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/set-night/timetravel/internal/service"
)

type chatRequest struct {
	Messages []domain.Turn `json:"messages"`
}

type chatResponse struct {
	Content string `json:"content"`
}

// proxyError is a failure as reported to the client.
type proxyError struct {
	status  int
	message string
	cause   error
}

// handleChat forwards the conversation to the language model with the
// persona preamble and returns the raw completion text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, config.MaxRequestBody)).Decode(&req); err != nil || req.Messages == nil {
		writeError(w, http.StatusBadRequest, config.MessagesRequiredError)
		return
	}

	content, perr := s.complete(r.Context(), req.Messages)
	if perr != nil {
		writeError(w, perr.status, perr.message)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Content: content})
}

func (s *Server) complete(ctx context.Context, turns []domain.Turn) (string, *proxyError) {
	for _, t := range turns {
		if !t.Role.Valid() {
			return "", &proxyError{http.StatusBadRequest, config.InvalidRoleError, nil}
		}
	}

	if s.deps.Chat == nil || !s.deps.Chat.Configured() {
		slog.Error("chat completion unavailable: no upstream key")
		return "", &proxyError{http.StatusInternalServerError, config.ProxyNoKeyError, nil}
	}

	content, err := s.deps.Chat.Complete(ctx, turns)
	if err == nil {
		return content, nil
	}

	var statusErr *service.UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		slog.Error("upstream completion failed", "status", statusErr.Status, "error", err)
		return "", &proxyError{statusErr.Status, config.ProxyUpstreamError, err}
	case errors.Is(err, service.ErrEmptyContent):
		slog.Warn("upstream completion empty")
		return "", &proxyError{http.StatusInternalServerError, config.ProxyEmptyError, err}
	default:
		slog.Error("chat completion failed", "error", err)
		return "", &proxyError{http.StatusInternalServerError, config.ProxyInternalError, err}
	}
}

// Gateway returns an in-process chat.Gateway with the same semantics as
// POST /api/chat, for front ends hosted by this server.
func (s *Server) Gateway() chat.Gateway {
	return localGateway{s}
}

type localGateway struct {
	s *Server
}

func (g localGateway) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	for _, t := range turns {
		if !t.Role.Valid() {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidRole, t.Role)
		}
	}
	content, perr := g.s.complete(ctx, turns)
	if perr != nil {
		return "", &chat.UpstreamError{Status: perr.status, Message: perr.message, Err: gatewayCause(perr.cause)}
	}
	return content, nil
}

// gatewayCause maps a provider failure onto the chat gateway failure classes.
func gatewayCause(err error) error {
	var urlErr *url.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrEmptyContent):
		return chat.ErrEmptyCompletion
	case errors.As(err, &urlErr):
		return &chat.TransportError{Err: err}
	default:
		return err
	}
}
