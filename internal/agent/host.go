package agent

import (
	"context"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/llm"
	"github.com/Iron-Ham/twentyq/internal/logging"
)

// maxTopicLength bounds an LLM-chosen topic; longer replies are treated as
// the model ignoring the instructions.
const maxTopicLength = 60

// Host keeps the secret topic and answers questions about it.
type Host struct {
	name   string
	llm    llm.Generator
	opts   options
	logger *logging.Logger
}

// NewHost creates a host backed by gen. The generator is shared, not owned.
func NewHost(name string, gen llm.Generator, opts ...Option) *Host {
	o := buildOptions(opts)
	return &Host{
		name:   name,
		llm:    gen,
		opts:   o,
		logger: o.logger.WithAgent(name),
	}
}

// Name returns the host's display name.
func (h *Host) Name() string { return h.name }

// Role returns RoleHost.
func (h *Host) Role() Role { return RoleHost }

// ChooseTopic returns the configured topic, or asks the LLM for one. Any
// failure falls back to FallbackTopic, so a game can always start.
func (h *Host) ChooseTopic(ctx context.Context) string {
	if h.opts.topic != "" {
		return h.opts.topic
	}

	callCtx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	reply, err := h.llm.Generate(callCtx, topicPrompt)
	if err != nil {
		logCallError(h.logger, "topic generation failed, using fallback", callError(ctx, "topic generation", h.opts.timeout, err))
		return FallbackTopic
	}

	topic := cleanReply(firstLine(reply))
	topic = strings.TrimRight(topic, ".!")
	if topic == "" || len(topic) > maxTopicLength {
		h.logger.Warn("unusable topic from llm, using fallback", "reply_length", len(reply))
		return FallbackTopic
	}
	return topic
}

// AnswerQuestion reports whether the LLM answers "yes" to question about
// topic. Failures are logged and count as "no".
func (h *Host) AnswerQuestion(ctx context.Context, question, topic string) bool {
	callCtx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	reply, err := h.llm.Generate(callCtx, buildAnswerPrompt(question, topic))
	if err != nil {
		logCallError(h.logger, "answer generation failed", callError(ctx, "answer generation", h.opts.timeout, err), "question", question)
		return false
	}

	answer := normalizeAnswer(reply)
	h.logger.Debug("answered question", "question", question, "answer", answer)
	return answer == "yes"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
