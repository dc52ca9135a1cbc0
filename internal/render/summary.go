package render

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/twentyq/internal/batch"
	"github.com/Iron-Ham/twentyq/internal/util"
	"github.com/charmbracelet/lipgloss"
)

// Outcome prints one line for a finished game of a batch.
func (p *Printer) Outcome(o batch.Outcome) {
	s := p.styles
	label := s.muted.Render(fmt.Sprintf("game %-3d", o.Index+1))

	var line string
	switch {
	case o.Err != nil:
		line = s.warning.Render("aborted: " + o.Err.Error())
	case o.Result.Winner == nil:
		line = s.warning.Render("unfinished")
	case *o.Result.Winner == "guesser":
		line = s.yes.Render("guesser wins") + " " + s.muted.Render(fmt.Sprintf("in %s (%s)",
			util.Plural(o.Result.QuestionsAsked, "question", "questions"), o.Result.Topic))
	default:
		line = s.no.Render("host wins") + " " + s.muted.Render("("+o.Result.Topic+")")
	}
	p.write([]string{label + " " + line})
}

// Summary prints the totals of a batch.
func (p *Printer) Summary(stats batch.Stats) {
	s := p.styles
	row := func(name, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.muted.Width(18).Render(name), value)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render(util.Plural(stats.Games, "game", "games")+" played"),
		row("guesser wins", fmt.Sprintf("%d (%.0f%%)", stats.GuesserWins, stats.GuesserWinRate()*100)),
		row("host wins", fmt.Sprintf("%d", stats.HostWins)),
		row("aborted", fmt.Sprintf("%d", stats.Aborted)),
		row("avg questions", fmt.Sprintf("%.1f", stats.AverageQuestions())),
		row("elapsed", stats.Elapsed.Round(time.Millisecond).String()),
	)
	p.write([]string{"", s.banner.Render(body)})
}
