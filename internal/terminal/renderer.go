package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/set-night/timetravel/internal/domain"
	"golang.org/x/term"
)

// Color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

const defaultWidth = 80

// Renderer prints conversation entries, rendering assistant markdown with
// glamour.
type Renderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
	color    bool
}

// NewRenderer wraps text to width. An empty style picks one from the
// terminal background; "notty" disables colors.
func NewRenderer(out io.Writer, width int, style string) (*Renderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width-10))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{out: out, markdown: md, color: style != "notty"}, nil
}

// Width returns the width of the terminal on stdout, or 80 when it is not a
// terminal.
func Width() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < 20 {
		return defaultWidth
	}
	return w
}

func (r *Renderer) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + colorReset
}

func (r *Renderer) Banner() {
	fmt.Fprintln(r.out, r.paint(colorBold+colorCyan, "TimeTravel Agency · Chronos"))
	fmt.Fprintln(r.out, r.paint(colorGray, "Commandes : /reset · /retry · /quit · un numéro choisit une suggestion"))
	fmt.Fprintln(r.out)
}

// Message prints one conversation entry.
func (r *Renderer) Message(m domain.Message) {
	if m.Role == domain.RoleUser {
		fmt.Fprintf(r.out, "%s %s\n", r.paint(colorBold, "Vous ›"), m.Content)
		return
	}

	fmt.Fprintln(r.out, r.paint(colorBold+colorCyan, "Chronos"))
	out, err := r.markdown.Render(m.Content)
	if err != nil {
		fmt.Fprintln(r.out, m.Content)
		return
	}
	fmt.Fprint(r.out, out)
}

// QuickReplies prints the numbered suggestions.
func (r *Renderer) QuickReplies(replies []string) {
	if len(replies) == 0 {
		return
	}
	parts := make([]string, len(replies))
	for i, s := range replies {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, s)
	}
	fmt.Fprintln(r.out, r.paint(colorDim, strings.Join(parts, "  ")))
}

func (r *Renderer) Error(text string) {
	fmt.Fprintln(r.out, r.paint(colorRed, "⚠ "+text))
	fmt.Fprintln(r.out, r.paint(colorGray, "/retry pour réessayer"))
}

func (r *Renderer) Notice(text string) {
	fmt.Fprintln(r.out, r.paint(colorGray, text))
}
