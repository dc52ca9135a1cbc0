// Package stream plays games for websocket clients. Every connection to the
// play endpoint starts a fresh game and receives its events as JSON
// messages, followed by the final result.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"
)

// Message types sent besides the game events.
const (
	TypeResult = "result"
	TypeError  = "error"
)

// MsgInternalError is sent in place of errors not meant for clients.
const MsgInternalError = "internal error"

// DefaultWriteTimeout bounds a single websocket write.
const DefaultWriteTimeout = 10 * time.Second

// Message is the envelope of everything written to a client.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type errorData struct {
	Message string `json:"message"`
}

// GameFactory builds a game whose events are published on bus.
type GameFactory func(bus *event.Bus) (*orchestrator.Manager, error)

// Handler serves one game per websocket connection.
type Handler struct {
	newGame      GameFactory
	logger       *logging.Logger
	writeTimeout time.Duration
	// skipOriginCheck accepts cross-origin browser clients.
	skipOriginCheck bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithWriteTimeout overrides DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithInsecureOrigins disables the websocket origin check.
func WithInsecureOrigins() Option {
	return func(h *Handler) {
		h.skipOriginCheck = true
	}
}

// NewHandler creates a handler starting games with newGame.
func NewHandler(newGame GameFactory, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.NopLogger()
	}
	h := &Handler{
		newGame:      newGame,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewServeMux routes /play to h and answers /healthz.
func NewServeMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /play", h)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ServeHTTP upgrades the connection and plays a game on it. The game is
// canceled when the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.skipOriginCheck,
	})
	if err != nil {
		h.logger.Error("failed to accept websocket", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.CloseNow()

	// Clients only listen; any message they send, or a disconnect, cancels ctx.
	ctx := conn.CloseRead(r.Context())

	if err := h.play(ctx, conn); err != nil {
		h.logger.Warn("game stream ended with error", "error", err, "remote", r.RemoteAddr)
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "game over")
}

func (h *Handler) play(ctx context.Context, conn *websocket.Conn) error {
	bus := event.NewBus(h.logger)
	messages := make(chan Message, 16)

	eg, ctx := errgroup.WithContext(ctx)

	// Publishing blocks until the writer catches up, so a slow client slows
	// the game down instead of losing events.
	bus.SubscribeAll(func(e event.Event) {
		select {
		case messages <- Message{Type: e.EventType(), Timestamp: e.Timestamp(), Data: e}:
		case <-ctx.Done():
		}
	})

	mgr, err := h.newGame(bus)
	if err != nil {
		h.logger.Error("failed to create game", "error", err)
		return h.write(ctx, conn, newErrorMessage(err))
	}

	eg.Go(func() error {
		defer close(messages)

		result, err := mgr.Run(ctx)
		if err != nil {
			h.logger.WithGame(result.GameID).Warn("streamed game failed", "error", err)
			return h.send(ctx, messages, newErrorMessage(err))
		}
		return h.send(ctx, messages, Message{Type: TypeResult, Timestamp: time.Now(), Data: result})
	})

	eg.Go(func() error {
		for msg := range messages {
			if err := h.write(ctx, conn, msg); err != nil {
				return err
			}
		}
		return nil
	})

	return eg.Wait()
}

func (h *Handler) send(ctx context.Context, messages chan<- Message, msg Message) error {
	select {
	case messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

// newErrorMessage reports err to the client. Only user-facing errors keep
// their text; the rest were logged by the caller.
func newErrorMessage(err error) Message {
	msg := MsgInternalError
	if errors.IsUserFacing(err) {
		msg = err.Error()
	}
	return Message{Type: TypeError, Timestamp: time.Now(), Data: errorData{Message: msg}}
}
