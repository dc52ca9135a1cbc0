// Package render prints a live game transcript to a terminal by following
// the events a game publishes.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/util"
	"github.com/charmbracelet/lipgloss"
)

const (
	primaryColor   = lipgloss.Color("#A78BFA")
	secondaryColor = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#F87171")
	mutedColor     = lipgloss.Color("#9CA3AF")
	borderColor    = lipgloss.Color("#6B7280")
)

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	turn    lipgloss.Style
	agent   lipgloss.Style
	yes     lipgloss.Style
	no      lipgloss.Style
	warning lipgloss.Style
	banner  lipgloss.Style
}

// newStyles builds styles for r, so color is dropped automatically when the
// output is not a terminal.
func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		turn:    r.NewStyle().Bold(true).Foreground(primaryColor),
		agent:   r.NewStyle().Foreground(mutedColor).Italic(true),
		yes:     r.NewStyle().Bold(true).Foreground(secondaryColor),
		no:      r.NewStyle().Bold(true).Foreground(errorColor),
		warning: r.NewStyle().Foreground(warningColor),
		banner: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 2),
	}
}

// Printer writes one line per game event. It is safe for concurrent use.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	verbose bool
	styles  styles
}

// Option configures a Printer.
type Option func(*Printer)

// WithWidth truncates lines to width columns; 0 disables truncation.
func WithWidth(width int) Option {
	return func(p *Printer) {
		p.width = width
	}
}

// WithVerbose also prints rejected questions and race results.
func WithVerbose(verbose bool) Option {
	return func(p *Printer) {
		p.verbose = verbose
	}
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{
		w:      w,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach subscribes the printer to every event on bus. The returned
// function unsubscribes it.
func (p *Printer) Attach(bus *event.Bus) func() {
	id := bus.SubscribeAll(p.Handle)
	return func() { bus.Unsubscribe(id) }
}

// Handle prints e. Unknown events are ignored.
func (p *Printer) Handle(e event.Event) {
	var lines []string
	s := p.styles

	switch e := e.(type) {
	case event.GameStartedEvent:
		lines = append(lines,
			s.title.Render("20 Questions")+" "+s.muted.Render(shortID(e.GameID)),
			s.muted.Render(fmt.Sprintf("%s mode · %s · %s",
				e.Mode,
				util.Plural(e.Guessers, "guesser", "guessers"),
				util.Plural(e.MaxQuestions, "question", "questions"))),
			"",
		)

	case event.TurnCompletedEvent:
		answer := s.no.Render("No")
		if e.Answer {
			answer = s.yes.Render("Yes")
		}
		lines = append(lines,
			fmt.Sprintf("%s %s %s", s.turn.Render(fmt.Sprintf("Q%d", e.Turn)), e.Question, s.agent.Render("("+e.Agent+")")),
			"    A: "+answer,
		)

	case event.TurnFailedEvent:
		lines = append(lines, s.warning.Render(fmt.Sprintf("Turn %d skipped: no valid question (%d in a row)", e.Turn, e.Consecutive)))

	case event.QuestionRejectedEvent:
		if p.verbose {
			lines = append(lines, s.muted.Render(fmt.Sprintf("    x %s: %s", e.Agent, e.Reason)))
		}

	case event.RaceSettledEvent:
		if p.verbose {
			elapsed := time.Duration(e.ElapsedMS) * time.Millisecond
			lines = append(lines, s.muted.Render(fmt.Sprintf("    %s won the race among %d in %s", e.Winner, e.Contenders, elapsed)))
		}

	case event.GameOverEvent:
		body := fmt.Sprintf("%s\n%s", e.Message, s.muted.Render(fmt.Sprintf("Topic: %s · %s",
			e.Topic, util.Plural(e.QuestionsAsked, "question", "questions"))))
		lines = append(lines, "", s.banner.Render(body))
	}

	if len(lines) == 0 {
		return
	}
	p.write(lines)
}

// Saved reports where the game's files were written.
func (p *Printer) Saved(paths ...string) {
	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		lines = append(lines, p.styles.muted.Render("saved "+path))
	}
	p.write(lines)
}

func (p *Printer) write(lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	for _, line := range lines {
		// the banner spans several lines and is never cut
		if !strings.Contains(line, "\n") {
			line = util.FitWidth(line, p.width)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	_, _ = io.WriteString(p.w, sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
