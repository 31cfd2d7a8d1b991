package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hitoshitoshi/SoloBass/model"
)

// Stub is a weightless Model returning a uniform distribution. It lets the
// whole pipeline run without the model server, and backs the reference
// server in tests.
type Stub struct {
	vocabSize int
}

func NewStub(vocabSize int) *Stub {
	return &Stub{vocabSize: vocabSize}
}

func (s *Stub) Predict(ctx context.Context, chord model.ChordVector, prevToken int, hidden State) ([]float64, State, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(ErrModel, err.Error())
	}
	if prevToken < 0 || prevToken >= s.vocabSize {
		return nil, nil, errors.Wrapf(ErrModel, "previous token %d outside vocabulary of %d", prevToken, s.vocabSize)
	}
	dist := make([]float64, s.vocabSize)
	for i := range dist {
		dist[i] = 1.0 / float64(s.vocabSize)
	}
	return dist, hidden, nil
}

func (s *Stub) VocabSize() int {
	return s.vocabSize
}

func (s *Stub) Close() error {
	return nil
}
