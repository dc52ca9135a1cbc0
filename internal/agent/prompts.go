package agent

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/game"
)

const topicPrompt = `You are hosting a game of 20 questions. Think of a secret topic for the other player to guess.

Rules:
1. Pick a concrete thing: an object, an animal, a place, a famous invention
2. It must be guessable with yes/no questions
3. Use at most four words
4. No quotes or punctuation

Respond with ONLY the topic, nothing else.`

const answerPrompt = `You are hosting a 20 questions game. The secret topic is '%s'.
User is asking the following question:
Question: %s
Do you think the question is related to this topic?
You are only expected to answer with just 'yes' or 'no', nothing else.

Example usage:
The secret topic is 'apple'

Q: Is this an item?
A: yes

Q: Is this science related?
A: no

Q: Is a food?
A: yes`

const questionPrompt = `You are playing 20 questions. Generate the next yes/no question based on previous Q&A:

Rules:
1. Question must be answerable with yes/no only
2. Preferably start with: is/does/can/will/has/are/would/could/should
3. Please don't ask similar questions to waste your chance

Narrow down the question based on previous Q&A

Questions asked so far: %d/%d.
%s
Now give your question based on the previous Q&As, approaching the correct answer.
Only the question, no explanation.`

// Transcript renders the questions and answers so far as "Q: ...\nA: Yes|No"
// lines under a header.
func Transcript(snap game.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("Previous questions and answers:\n")
	for i, q := range snap.Questions {
		answer := "No"
		if i < len(snap.Answers) && snap.Answers[i] {
			answer = "Yes"
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", q, answer)
	}
	return sb.String()
}

func buildAnswerPrompt(question, topic string) string {
	return fmt.Sprintf(answerPrompt, topic, question)
}

func buildQuestionPrompt(snap game.Snapshot) string {
	return fmt.Sprintf(questionPrompt, snap.QuestionsAsked, snap.MaxQuestions, Transcript(snap))
}
