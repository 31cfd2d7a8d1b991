// Package ai talks to the model-serving side of the system. The trained
// chord-conditioned LSTM lives in a separate process behind a small HTTP
// contract; this package holds the contract types, the client, a reference
// server, and a deterministic stub used in tests and wiring checks.
package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hitoshitoshi/SoloBass/model"
)

var ErrModel = errors.New("model error")

// State is the model's opaque recurrent state. It is owned by exactly one
// engine session at a time and passed back verbatim on every step.
type State []byte

// Model is the predict-next-note-distribution collaborator. Predict must
// not mutate its receiver: the loaded weights are read-only and a Model is
// safely reusable across sessions, though never by two live sessions
// concurrently through one engine.
type Model interface {
	// Predict returns the next-token distribution and the successor
	// recurrent state given the current chord vector and previous token.
	Predict(ctx context.Context, chord model.ChordVector, prevToken int, hidden State) ([]float64, State, error)
	// VocabSize is the length of the distributions Predict returns.
	VocabSize() int
	Close() error
}
