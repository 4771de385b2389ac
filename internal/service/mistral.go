package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
)

// ErrEmptyContent is returned when the provider answered without text.
var ErrEmptyContent = errors.New("upstream returned no content")

// UpstreamStatusError is a non-2xx answer from the provider.
type UpstreamStatusError struct {
	Status int
	Body   string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("mistral returned status %d: %s", e.Status, e.Body)
}

type MistralService struct {
	apiKey     string
	baseURL    string
	model      string
	persona    string
	httpClient *http.Client
}

func NewMistralService(cfg *config.Config, persona string) *MistralService {
	return &MistralService{
		apiKey:     cfg.MistralAPIKey,
		baseURL:    strings.TrimRight(cfg.MistralURL, "/"),
		model:      cfg.MistralModel,
		persona:    persona,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Configured reports whether an API key is available.
func (s *MistralService) Configured() bool {
	return s.apiKey != ""
}

// Complete prepends the persona to the conversation and returns the first
// choice's text.
func (s *MistralService) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	messages := make([]ChatMessage, 0, len(turns)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: s.persona})
	for _, t := range turns {
		messages = append(messages, ChatMessage{Role: string(t.Role), Content: t.Content})
	}

	payload, err := json.Marshal(ChatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamStatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyContent
	}
	return chatResp.Choices[0].Message.Content, nil
}
