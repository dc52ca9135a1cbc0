package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/twentyq/internal/game"
)

// fakeHost answers with a fixed rule.
type fakeHost struct {
	topic  string
	answer func(question string) bool

	mu    sync.Mutex
	asked []string
}

func (h *fakeHost) ChooseTopic(context.Context) string { return h.topic }

func (h *fakeHost) AnswerQuestion(_ context.Context, question, _ string) bool {
	h.mu.Lock()
	h.asked = append(h.asked, question)
	h.mu.Unlock()
	if h.answer == nil {
		return false
	}
	return h.answer(question)
}

// fakeGuesser delegates to fn and counts calls.
type fakeGuesser struct {
	name  string
	fn    func(ctx context.Context, snap game.Snapshot, sink game.LogSink) (bool, string)
	calls atomic.Int32
}

func (g *fakeGuesser) Name() string { return g.name }

func (g *fakeGuesser) GenerateQuestion(ctx context.Context, snap game.Snapshot, sink game.LogSink) (bool, string) {
	g.calls.Add(1)
	return g.fn(ctx, snap, sink)
}

func fixedGuesser(name string, ok bool, msg string) *fakeGuesser {
	return &fakeGuesser{name: name, fn: func(context.Context, game.Snapshot, game.LogSink) (bool, string) {
		return ok, msg
	}}
}
