package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

type stubHost struct{ topic string }

func (h stubHost) ChooseTopic(context.Context) string { return h.topic }

func (h stubHost) AnswerQuestion(_ context.Context, question, _ string) bool {
	return strings.Contains(strings.ToLower(question), strings.ToLower(h.topic))
}

type stubGuesser struct{ questions []string }

func (g *stubGuesser) Name() string { return "Test Guesser" }

func (g *stubGuesser) GenerateQuestion(_ context.Context, snap game.Snapshot, _ game.LogSink) (bool, string) {
	return true, g.questions[min(snap.QuestionsAsked, len(g.questions)-1)]
}

func factory(questions ...string) GameFactory {
	return func(bus *event.Bus) (*orchestrator.Manager, error) {
		src := orchestrator.NewSingleSource(&stubGuesser{questions: questions}, 1, bus, nil)
		return orchestrator.NewManager(stubHost{topic: "Kettle"}, src, orchestrator.Settings{Mode: "single", MaxQuestions: 5}, orchestrator.WithBus(bus)), nil
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/play", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

type received struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// readAll reads messages until the server closes the connection.
func readAll(t *testing.T, conn *websocket.Conn) []received {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var msgs []received
	for {
		var msg received
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				t.Fatalf("Read() error = %v", err)
			}
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestHandler_StreamsGame(t *testing.T) {
	srv := httptest.NewServer(NewServeMux(NewHandler(factory("Is it metal?", "Is it a kettle?"), nil)))
	defer srv.Close()

	msgs := readAll(t, dial(t, srv))

	var types []string
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	want := []string{
		event.TypeGameStarted,
		event.TypeTurnCompleted,
		event.TypeTurnCompleted,
		event.TypeGameOver,
		TypeResult,
	}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("message types = %v, want %v", types, want)
	}

	first := msgs[1].Data
	if first["question"] != "Is it metal?" || first["answer"] != false || first["turn"] != float64(1) {
		t.Errorf("first turn = %v", first)
	}

	result := msgs[len(msgs)-1].Data
	if result["winner"] != "guesser" || result["topic"] != "Kettle" || result["questions_asked"] != float64(2) {
		t.Errorf("result = %v", result)
	}
	if log, ok := result["game_log"].([]any); !ok || len(log) != 2 {
		t.Errorf("game_log = %v", result["game_log"])
	}
}

func TestHandler_FactoryError(t *testing.T) {
	failing := func(*event.Bus) (*orchestrator.Manager, error) {
		return nil, errors.New("no api key configured")
	}
	srv := httptest.NewServer(NewServeMux(NewHandler(failing, nil)))
	defer srv.Close()

	msgs := readAll(t, dial(t, srv))
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("messages = %+v, want one error", msgs)
	}
	if msgs[0].Data["message"] != MsgInternalError {
		t.Errorf("error message = %v, want internal details hidden", msgs[0].Data["message"])
	}
}

type failingGuesser struct{}

func (failingGuesser) Name() string { return "Test Guesser" }

func (failingGuesser) GenerateQuestion(context.Context, game.Snapshot, game.LogSink) (bool, string) {
	return false, "Problem interacting with llm"
}

func TestHandler_AbortedGameReportsError(t *testing.T) {
	aborting := func(bus *event.Bus) (*orchestrator.Manager, error) {
		src := orchestrator.NewSingleSource(failingGuesser{}, 1, bus, nil)
		return orchestrator.NewManager(stubHost{topic: "Kettle"}, src, orchestrator.Settings{Mode: "single", MaxQuestions: 5}, orchestrator.WithBus(bus)), nil
	}
	srv := httptest.NewServer(NewServeMux(NewHandler(aborting, nil)))
	defer srv.Close()

	msgs := readAll(t, dial(t, srv))
	if len(msgs) == 0 {
		t.Fatal("no messages received")
	}
	last := msgs[len(msgs)-1]
	if last.Type != TypeError {
		t.Fatalf("last message = %+v, want error", last)
	}
	if msg, _ := last.Data["message"].(string); !strings.Contains(msg, "consecutive failed turns") {
		t.Errorf("error message = %q, want the abort reason", msg)
	}
}

func TestHandler_ClientDisconnectCancelsGame(t *testing.T) {
	stopped := make(chan error, 1)
	blocking := func(bus *event.Bus) (*orchestrator.Manager, error) {
		src := blockingSource{stopped: stopped}
		return orchestrator.NewManager(stubHost{topic: "Kettle"}, src, orchestrator.Settings{}, orchestrator.WithBus(bus)), nil
	}
	srv := httptest.NewServer(NewServeMux(NewHandler(blocking, nil)))
	defer srv.Close()

	conn := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var started received
	if err := wsjson.Read(ctx, conn, &started); err != nil || started.Type != event.TypeGameStarted {
		t.Fatalf("first message = %+v, %v", started, err)
	}

	conn.Close(websocket.StatusGoingAway, "bye")

	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("game stopped with %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("game kept running after the client left")
	}
}

type blockingSource struct{ stopped chan<- error }

func (blockingSource) Guessers() int { return 1 }

func (s blockingSource) Next(ctx context.Context, _ game.Snapshot, _ game.LogSink) (orchestrator.Candidate, error) {
	<-ctx.Done()
	s.stopped <- ctx.Err()
	return orchestrator.Candidate{}, ctx.Err()
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewServeMux(NewHandler(factory("Is it?"), nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Errorf("GET /healthz = %d %q", resp.StatusCode, body)
	}
}
