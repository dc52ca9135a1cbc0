// Package logging provides structured logging for twentyq games.
//
// This package wraps Go's log/slog to write JSON-formatted logs with context
// propagation, so a finished game can be reconstructed from its debug log:
// which guesser produced which question, what the host answered and why a
// candidate question was rejected.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Guessers racing in
// multi-agent mode share a single [Logger]; child loggers created via With*
// methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("output/4f1c", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	gameLogger := logger.WithGame(state.ID)
//	gameLogger.WithTurn(3).WithAgent("Player_1").Info("question accepted", "question", q)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"question accepted","game_id":"4f1c...","turn":3,"agent":"Player_1","question":"Is it alive?"}
//
// # Testing
//
// Use [NopLogger] to discard all output, or [NewWriterLogger] to capture it.
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
package logging
