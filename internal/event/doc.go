// Package event provides a pub-sub event bus that decouples the game
// orchestrator from whoever is watching a game: the terminal renderer, the
// websocket stream and the debug logger.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Game Lifecycle:
//   - [GameStartedEvent]: the host chose a topic and the first turn may run
//   - [GameOverEvent]: a winner was decided
//
// Turns:
//   - [QuestionRejectedEvent]: a guesser produced a question that failed validation
//   - [RaceSettledEvent]: the first valid question of a multi-guesser race was taken
//   - [TurnCompletedEvent]: the host answered a question
//   - [TurnFailedEvent]: no valid question was produced for a turn
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Racing guessers publish from
// their own goroutines. Handlers are called synchronously on the publishing
// goroutine and are protected against panics.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeTurnCompleted, func(e event.Event) {
//	    turn := e.(event.TurnCompletedEvent)
//	    fmt.Printf("Q: %s\n", turn.Question)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
package event
