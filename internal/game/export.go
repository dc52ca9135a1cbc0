package game

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/twentyq/internal/errors"
)

// Result is the summary of a played game.
type Result struct {
	GameID         string   `json:"-"`
	Winner         *string  `json:"winner"`
	Topic          string   `json:"topic"`
	QuestionsAsked int      `json:"questions_asked"`
	GameLog        []string `json:"game_log"`
}

// NewResult summarizes the state together with the transcript messages
// collected while playing. Winner is null for games that never finished.
func NewResult(s *State, transcript []string) Result {
	r := Result{
		GameID:         s.ID(),
		Topic:          s.Topic(),
		QuestionsAsked: s.QuestionsAsked(),
		GameLog:        append([]string{}, transcript...),
	}
	if w := s.Winner(); w != WinnerNone {
		winner := string(w)
		r.Winner = &winner
	}
	return r
}

// WriteLogs writes the audit trail as an indented JSON array.
func (s *State) WriteLogs(w io.Writer) error {
	return writeIndented(w, s.Logs())
}

// ExportLogs writes the audit trail to path, creating parent directories.
func (s *State) ExportLogs(path string) error {
	return writeFile(path, func(w io.Writer) error { return s.WriteLogs(w) })
}

// Write writes the result as indented JSON.
func (r Result) Write(w io.Writer) error {
	return writeIndented(w, r)
}

// Export writes the result to path, creating parent directories.
func (r Result) Export(path string) error {
	return writeFile(path, r.Write)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()

	return write(f)
}
