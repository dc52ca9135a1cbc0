// Package validator decides whether a guesser's question may be put to the
// host: it rejects open-ended questions and exact repeats, and recognizes
// questions that are really a direct guess at the topic.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/game"
)

// Rejection messages
const (
	MsgEmptyQuestion     = "Question could not be empty. Please give a valid question"
	MsgDuplicateQuestion = "Question is exact same with one of the previous one"
)

// disallowedPatterns are leading phrases that almost never start a yes/no
// question. They match as prefixes, so "whatever" is rejected too.
var disallowedPatterns = []string{
	`^what`,
	`^how`,
	`^who`,
	`^where`,
	`^when`,
	`^why`,
	`^which`,
	`^can you tell`,
	`^tell me`,
}

// guessPatterns recognize a direct guess, tried in order. The last one is a
// catch-all: any terse phrase made of letters, digits, spaces and hyphens
// counts as a guess ("umbrella?").
var guessPatterns = []string{
	`^is it ([a-z0-9\s-]+)\??$`,
	`^could it be ([a-z0-9\s-]+)\??$`,
	`^would it be ([a-z0-9\s-]+)\??$`,
	`^are you thinking of ([a-z0-9\s-]+)\??$`,
	`^is the answer ([a-z0-9\s-]+)\??$`,
	`^([a-z0-9\s-]+)\??$`,
}

type rule struct {
	pattern string
	re      *regexp.Regexp
}

func compile(patterns []string) []rule {
	rules := make([]rule, len(patterns))
	for i, p := range patterns {
		rules[i] = rule{pattern: p, re: regexp.MustCompile(p)}
	}
	return rules
}

// Validator checks questions. It holds only compiled patterns and is safe
// for concurrent use.
type Validator struct {
	disallowed []rule
	guesses    []rule
}

// New returns a Validator with the standard rule set.
func New() *Validator {
	return &Validator{
		disallowed: compile(disallowedPatterns),
		guesses:    compile(guessPatterns),
	}
}

// Normalize lowercases and trims a question. All comparisons are done on
// normalized text.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// IsValidQuestion reports whether question is an acceptable yes/no question.
// Every rejection appends one validation_error entry to sink, so calling it
// twice with the same bad question logs twice.
func (v *Validator) IsValidQuestion(question string, sink game.LogSink) (bool, string) {
	q := Normalize(question)

	if q == "" {
		sink.AddLog(game.LogValidationError, MsgEmptyQuestion, q, nil)
		return false, MsgEmptyQuestion
	}

	for _, r := range v.disallowed {
		if r.re.MatchString(q) {
			msg := fmt.Sprintf("Question starts with '%s', it's mostly not a valid question", r.pattern)
			sink.AddLog(game.LogValidationError, msg, q, map[string]any{"pattern": r.pattern})
			return false, msg
		}
	}

	return true, ""
}

// IsSimilarToPrevious reports whether question repeats one of previous after
// normalization. A repeat appends one similarity_error entry to sink.
func (v *Validator) IsSimilarToPrevious(question string, previous []string, sink game.LogSink) (bool, string) {
	q := Normalize(question)

	for _, prev := range previous {
		p := Normalize(prev)
		if q == p {
			sink.AddLog(game.LogSimilarityError, MsgDuplicateQuestion, q, map[string]any{"matched_with": p})
			return true, MsgDuplicateQuestion
		}
	}

	return false, ""
}

// ExtractGuess returns the guessed topic when question is a direct guess.
// Articles are kept: "Is it a banana?" yields "a banana".
func (v *Validator) ExtractGuess(question string) (string, bool) {
	q := Normalize(question)

	for _, r := range v.guesses {
		if m := r.re.FindStringSubmatch(q); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

var articles = []string{"a ", "an ", "the "}

// MatchesTopic reports whether guess names topic. Both sides are normalized
// and one leading article is ignored, so "a banana" matches "Banana".
func MatchesTopic(guess, topic string) bool {
	g, t := stripArticle(Normalize(guess)), stripArticle(Normalize(topic))
	return g != "" && g == t
}

func stripArticle(s string) string {
	for _, a := range articles {
		if rest, ok := strings.CutPrefix(s, a); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}
