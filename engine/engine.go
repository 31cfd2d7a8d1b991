// Package engine drives autoregressive bass generation: one token per grid
// step, conditioned on the chord vector and the model's recurrent state.
package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/util"
)

var (
	ErrTemperature         = errors.New("temperature must be > 0")
	ErrClosed              = errors.New("engine is closed")
	ErrInvalidDistribution = errors.New("invalid distribution")
)

type state int

const (
	stateReady state = iota
	stateStepping
	stateClosed
)

// Engine is the generation state machine. It exclusively owns the model's
// recurrent state for its session: steps are strictly sequential and step
// k's result depends only on inputs from steps <= k.
type Engine struct {
	model       ai.Model
	temperature float64
	rest        int

	hidden ai.State
	prev   int
	st     state

	rng     *rand.Rand
	session string
	log     *log.Entry
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithSeed makes sampling deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// New builds an engine around a loaded model. restToken seeds the
// autoregression; temperature must be > 0.
func New(m ai.Model, temperature float64, restToken int, opts ...Option) (*Engine, error) {
	if temperature <= 0 {
		return nil, errors.Wrapf(ErrTemperature, "got %v", temperature)
	}
	e := &Engine{
		model:       m,
		temperature: temperature,
		rest:        restToken,
		prev:        restToken,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		session:     uuid.New().String(),
	}
	e.log = log.WithFields(log.Fields{
		"function": "Engine",
		"session":  e.session,
	})
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Session is the id used to correlate this engine's log lines.
func (e *Engine) Session() string {
	return e.session
}

// Step produces the next bass token for the given chord vector and advances
// the recurrent state. Valid until Close.
func (e *Engine) Step(ctx context.Context, chord model.ChordVector) (int, error) {
	if e.st == stateClosed {
		return 0, ErrClosed
	}

	dist, hidden, err := e.model.Predict(ctx, chord, e.prev, e.hidden)
	if err != nil {
		return 0, err
	}

	probs, err := normalize(dist)
	if err != nil {
		return 0, err
	}
	tok := e.sample(resample(probs, e.temperature))

	e.prev = tok
	e.hidden = hidden
	e.st = stateStepping
	return tok, nil
}

// Reset reinitializes the recurrent state and previous token without
// discarding the loaded model.
func (e *Engine) Reset() error {
	if e.st == stateClosed {
		return ErrClosed
	}
	e.hidden = nil
	e.prev = e.rest
	e.st = stateReady
	e.log.Debug("Engine reset")
	return nil
}

// Close ends the session and drops the recurrent state. The model handle
// itself stays open; it belongs to whoever loaded it and may serve another
// session. Further calls on the engine fail.
func (e *Engine) Close() error {
	if e.st == stateClosed {
		return ErrClosed
	}
	e.st = stateClosed
	e.hidden = nil
	e.log.Debug("Engine closed")
	return nil
}

// normalize clips negative values and rescales the distribution to sum to
// one. Numerical drift from the model is expected and must not propagate.
func normalize(dist []float64) ([]float64, error) {
	res := make([]float64, len(dist))
	for i, p := range dist {
		if p > 0 {
			res[i] = p
		}
	}
	total := util.Sum(res)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, errors.Wrapf(ErrInvalidDistribution, "sum after clipping is %v", total)
	}
	for i := range res {
		res[i] /= total
	}
	return res, nil
}

// resample applies temperature scaling: p_i' = p_i^(1/T) / sum_j p_j^(1/T).
// T=1 is the identity, T->0 converges to a one-hot at the mode, larger T
// flattens toward uniform. Computed in log space for stability.
func resample(probs []float64, temperature float64) []float64 {
	logits := make([]float64, len(probs))
	maxLogit := math.Inf(-1)
	for i, p := range probs {
		logits[i] = math.Log(p+1e-9) / temperature
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}

	res := make([]float64, len(probs))
	for i, l := range logits {
		res[i] = math.Exp(l - maxLogit)
	}
	total := util.Sum(res)
	for i := range res {
		res[i] /= total
	}
	return res
}

// sample draws a token index from a categorical distribution.
func (e *Engine) sample(probs []float64) int {
	r := e.rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if r < acc {
			return i
		}
	}
	// rounding left r past the accumulated mass; take the last live entry
	for i := len(probs) - 1; i >= 0; i-- {
		if probs[i] > 0 {
			return i
		}
	}
	return len(probs) - 1
}
