package terminal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/domain"
)

const (
	waitingText = "Chronos consulte les archives temporelles…"
	busyText    = "Une réponse est déjà en cours."
)

// Client runs the concierge conversation on a line-oriented terminal.
type Client struct {
	session  *chat.Session
	renderer *Renderer
	in       *bufio.Reader

	// printed holds the IDs of the messages already on screen, in order.
	printed []string
}

func NewClient(session *chat.Session, renderer *Renderer, in io.Reader) *Client {
	session.MarkOpened()
	return &Client{
		session:  session,
		renderer: renderer,
		in:       bufio.NewReader(in),
	}
}

// Run prints the conversation so far and processes input until /quit, EOF
// or cancellation.
func (c *Client) Run(ctx context.Context) error {
	c.renderer.Banner()
	c.show(c.session.State())

	for {
		line, err := c.in.ReadString('\n')
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if quit := c.Handle(ctx, strings.TrimSpace(line)); quit || err != nil {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the client should exit.
func (c *Client) Handle(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/reset":
		c.session.Reset()
		c.show(c.session.State())
		return false
	case "/retry":
		c.converse(ctx, c.session.Retry)
		return false
	}

	if n, err := strconv.Atoi(line); err == nil {
		replies := c.session.State().QuickReplies
		if n >= 1 && n <= len(replies) {
			line = replies[n-1]
		}
	}

	c.session.SetInput(line)
	c.converse(ctx, c.session.SubmitInput)
	return false
}

func (c *Client) converse(ctx context.Context, send func(context.Context) bool) {
	c.renderer.Notice(waitingText)
	if !send(ctx) {
		if c.session.State().Loading {
			c.renderer.Notice(busyText)
		}
		return
	}
	c.show(c.session.State())
}

// show prints messages not printed yet, then the error or the quick replies.
func (c *Client) show(st chat.State) {
	from := c.unprinted(st.Messages)
	for _, m := range st.Messages[from:] {
		c.renderer.Message(m)
	}
	c.printed = c.printed[:0]
	for _, m := range st.Messages {
		c.printed = append(c.printed, m.ID)
	}

	if st.Error != "" {
		c.renderer.Error(st.Error)
		return
	}
	c.renderer.QuickReplies(st.QuickReplies)
}

// unprinted returns the index of the first message to print: the one after
// the last printed message, or the first that differs from what was printed
// when that message is gone.
func (c *Client) unprinted(messages []domain.Message) int {
	if len(c.printed) == 0 {
		return 0
	}
	last := c.printed[len(c.printed)-1]
	for i, m := range messages {
		if m.ID == last {
			return i + 1
		}
	}
	i := 0
	for i < len(messages) && i < len(c.printed) && messages[i].ID == c.printed[i] {
		i++
	}
	return i
}
