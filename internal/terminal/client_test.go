package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGateway struct {
	mu      sync.Mutex
	calls   [][]domain.Turn
	replies []string
	errs    []error
}

func (g *scriptedGateway) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.calls)
	g.calls = append(g.calls, turns)
	if n < len(g.errs) && g.errs[n] != nil {
		return "", g.errs[n]
	}
	if n < len(g.replies) {
		return g.replies[n], nil
	}
	return "Très bien.", nil
}

func newTestClient(t *testing.T, gw chat.Gateway, input string) (*Client, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := NewRenderer(&out, 80, "notty")
	require.NoError(t, err)

	store := chat.NewStore(chat.NewMemoryStorage(0), "")
	s := chat.NewSession(gw, store, chat.Options{DeliveryDelay: time.Millisecond})
	t.Cleanup(s.Close)
	return NewClient(s, r, strings.NewReader(input)), &out
}

func TestClient_Run(t *testing.T) {
	gw := &scriptedGateway{replies: []string{"Paris vous attend. [SUGGESTIONS]Le prix ?|Les dates ?[/SUGGESTIONS]"}}
	c, out := newTestClient(t, gw, "Parlez-moi de Paris\n/quit\nignored\n")

	require.NoError(t, c.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Chronos")
	assert.Contains(t, text, "[1] "+config.StarterReplies[0])
	assert.Contains(t, text, "Vous › Parlez-moi de Paris")
	assert.Contains(t, text, "Paris vous attend.")
	assert.Contains(t, text, "[1] Le prix ?  [2] Les dates ?")
	assert.NotContains(t, text, "SUGGESTIONS")
	assert.Len(t, gw.calls, 1)
}

func TestClient_RunStopsAtEOF(t *testing.T) {
	gw := &scriptedGateway{}
	c, _ := newTestClient(t, gw, "Bonjour")

	require.NoError(t, c.Run(context.Background()))
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "Bonjour", gw.calls[0][1].Content)
}

func TestClient_NumberPicksQuickReply(t *testing.T) {
	gw := &scriptedGateway{}
	c, _ := newTestClient(t, gw, "")

	assert.False(t, c.Handle(context.Background(), "2"))
	require.Len(t, gw.calls, 1)
	assert.Equal(t, config.StarterReplies[1], gw.calls[0][1].Content)

	// out of range numbers are sent as typed
	c.Handle(context.Background(), "9")
	assert.Equal(t, "9", gw.calls[1][len(gw.calls[1])-1].Content)
}

func TestClient_ErrorAndRetry(t *testing.T) {
	gw := &scriptedGateway{errs: []error{errors.New("offline")}, replies: []string{"", "De retour."}}
	c, out := newTestClient(t, gw, "")
	ctx := context.Background()

	c.Handle(ctx, "Le Crétacé ?")
	assert.Contains(t, out.String(), config.FallbackChatError)

	before := out.Len()
	c.Handle(ctx, "/retry")
	require.Len(t, gw.calls, 2)

	after := out.String()[before:]
	assert.Contains(t, after, "Vous › Le Crétacé ?")
	assert.Contains(t, after, "De retour.")
	assert.Less(t, strings.Index(after, "Vous › Le Crétacé ?"), strings.Index(after, "De retour."))
}

func TestClient_RetryAnsweredMessage(t *testing.T) {
	gw := &scriptedGateway{replies: []string{"Première réponse.", "Deuxième réponse."}}
	c, out := newTestClient(t, gw, "")
	ctx := context.Background()

	c.Handle(ctx, "Question unique")
	before := out.Len()
	c.Handle(ctx, "/retry")
	require.Len(t, gw.calls, 2)

	after := out.String()[before:]
	assert.Contains(t, after, "Vous › Question unique")
	assert.Contains(t, after, "Deuxième réponse.")
	assert.NotContains(t, after, "Première réponse.")
	assert.NotContains(t, after, config.WelcomeText)
}

func TestClient_Reset(t *testing.T) {
	gw := &scriptedGateway{}
	c, out := newTestClient(t, gw, "")
	ctx := context.Background()

	c.Handle(ctx, "Bonjour")
	out.Reset()

	c.Handle(ctx, "/reset")
	assert.Len(t, c.session.State().Messages, 1)
	assert.Contains(t, out.String(), "[1] "+config.StarterReplies[0])
}

func TestClient_Quit(t *testing.T) {
	c, _ := newTestClient(t, &scriptedGateway{}, "")
	assert.True(t, c.Handle(context.Background(), "/quit"))
	assert.True(t, c.Handle(context.Background(), "/exit"))
	assert.False(t, c.Handle(context.Background(), ""))
}

func TestRenderer_NoColorWithNoTTY(t *testing.T) {
	var out bytes.Buffer
	r, err := NewRenderer(&out, 80, "notty")
	require.NoError(t, err)

	r.Error("perturbation")
	assert.NotContains(t, out.String(), "\033[")
	assert.Contains(t, out.String(), "⚠ perturbation")
}
