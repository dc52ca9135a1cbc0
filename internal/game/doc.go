// Package game holds the state of a single 20 Questions game: the secret
// topic, the question and answer transcript, the winner, and an audit trail
// of rejected questions and game events.
//
// The audit trail and the final result can be exported as JSON files in the
// layout consumed by downstream analysis tooling:
//
//	[{"timestamp": ..., "type": "validation_error", "message": ..., "question": ..., "details": ...}]
//	{"winner": "guesser", "topic": ..., "questions_asked": 7, "game_log": [...]}
package game
