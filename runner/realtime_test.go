package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/engine"
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/pitch"
	"github.com/hitoshitoshi/SoloBass/quantize"
)

type synthEvent struct {
	on    bool
	pitch uint8
}

type recordingSynth struct {
	mu     sync.Mutex
	events []synthEvent
}

func (s *recordingSynth) NoteOn(pitch, velocity uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, synthEvent{on: true, pitch: pitch})
	return nil
}

func (s *recordingSynth) NoteOff(pitch uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, synthEvent{on: false, pitch: pitch})
	return nil
}

func (s *recordingSynth) Close() error { return nil }

func (s *recordingSynth) recorded() []synthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]synthEvent(nil), s.events...)
}

// tokenScriptModel emits one-hot distributions following a fixed token
// script, repeating the last entry when the script runs out.
type tokenScriptModel struct {
	vocabSize int
	script    []int
	call      int
}

func (m *tokenScriptModel) Predict(ctx context.Context, chord model.ChordVector, prevToken int, hidden ai.State) ([]float64, ai.State, error) {
	tok := m.script[len(m.script)-1]
	if m.call < len(m.script) {
		tok = m.script[m.call]
	}
	m.call++
	dist := make([]float64, m.vocabSize)
	dist[tok] = 1
	return dist, hidden, nil
}

func (m *tokenScriptModel) VocabSize() int { return m.vocabSize }
func (m *tokenScriptModel) Close() error   { return nil }

// stuckModel blocks until the step deadline expires.
type stuckModel struct{ vocabSize int }

func (m *stuckModel) Predict(ctx context.Context, chord model.ChordVector, prevToken int, hidden ai.State) ([]float64, ai.State, error) {
	<-ctx.Done()
	return nil, nil, errors.Wrap(ai.ErrModel, "predict timed out")
}

func (m *stuckModel) VocabSize() int { return m.vocabSize }
func (m *stuckModel) Close() error   { return nil }

func testEncoders(t *testing.T) (bass, guitar pitch.Encoder) {
	t.Helper()
	bassEnc, err := pitch.NewEncoder(pitch.Range{Low: 23, High: 62})
	assert.NoError(t, err)
	guitarEnc, err := pitch.NewEncoder(pitch.Range{Low: 40, High: 84})
	assert.NoError(t, err)
	return bassEnc, guitarEnc
}

// fast grid for tests: 10ms ticks
var testGrid = quantize.Grid{BPM: 1500, StepsPerQuarter: 4}

func newTestRealTime(t *testing.T, m ai.Model, s *recordingSynth) *RealTime {
	t.Helper()
	bassEnc, guitarEnc := testEncoders(t)
	eng, err := engine.New(m, 1.0, bassEnc.Rest(), engine.WithSeed(1))
	assert.NoError(t, err)
	return NewRealTime(eng, bassEnc, guitarEnc, testGrid, s)
}

func TestTickCountTracksWallClock(t *testing.T) {
	s := &recordingSynth{}
	rt := newTestRealTime(t, &tokenScriptModel{vocabSize: 42, script: []int{41}}, s)

	const duration = 300 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	assert.NoError(t, rt.loop(ctx, func() {}, nil))

	expected := float64(duration) / float64(testGrid.TickPeriod())
	assert.InDelta(t, expected, float64(rt.Ticks()), 1.5, "no unbounded drift")
}

func TestEmitTransitions(t *testing.T) {
	s := &recordingSynth{}
	bassEnc, _ := testEncoders(t)
	tokC, _ := bassEnc.Encode(36)
	tokE, _ := bassEnc.Encode(40)

	rt := newTestRealTime(t, ai.NewStub(bassEnc.VocabSize()), s)

	rt.emit(tokC)           // new note
	rt.emit(bassEnc.Hold()) // sustains, no event
	rt.emit(tokC)           // same pitch, still sustains
	rt.emit(tokE)           // replaces: off then on
	rt.emit(bassEnc.Rest()) // silences
	rt.emit(bassEnc.Rest()) // already silent, no event

	assert.Equal(t, []synthEvent{
		{on: true, pitch: 36},
		{on: false, pitch: 36},
		{on: true, pitch: 40},
		{on: false, pitch: 40},
	}, s.recorded())
}

func TestShutdownReleasesSoundingNote(t *testing.T) {
	s := &recordingSynth{}
	bassEnc, _ := testEncoders(t)
	tok, _ := bassEnc.Encode(30)
	rt := newTestRealTime(t, &tokenScriptModel{vocabSize: bassEnc.VocabSize(), script: []int{tok, bassEnc.Hold()}}, s)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	listenerStopped := false
	assert.NoError(t, rt.loop(ctx, func() { listenerStopped = true }, nil))

	events := s.recorded()
	assert := assert.New(t)
	assert.True(listenerStopped)
	assert.NotEmpty(events)
	assert.Equal(synthEvent{on: true, pitch: 30}, events[0])
	assert.Equal(synthEvent{on: false, pitch: 30}, events[len(events)-1], "shutdown must not leave a note stuck on")

	// the engine session is closed once the loop returns
	_, err := rt.eng.Step(context.Background(), nil)
	assert.ErrorIs(err, engine.ErrClosed)
}

func TestDeviceLossStopsLoopAndDrainsNote(t *testing.T) {
	s := &recordingSynth{}
	bassEnc, _ := testEncoders(t)
	tok, _ := bassEnc.Encode(30)
	rt := newTestRealTime(t, &tokenScriptModel{vocabSize: bassEnc.VocabSize(), script: []int{tok, bassEnc.Hold()}}, s)

	polls := 0
	healthy := func() bool {
		polls++
		return polls < 3
	}
	listenerStopped := false
	err := rt.loop(context.Background(), func() { listenerStopped = true }, healthy)

	assert := assert.New(t)
	assert.ErrorIs(err, ErrDevice)
	assert.True(listenerStopped)

	events := s.recorded()
	assert.NotEmpty(events)
	assert.Equal(synthEvent{on: true, pitch: 30}, events[0])
	assert.Equal(synthEvent{on: false, pitch: 30}, events[len(events)-1], "device loss must not leave a note stuck on")
}

func TestSlowPredictSkipsTicksWithoutStallingClock(t *testing.T) {
	s := &recordingSynth{}
	rt := newTestRealTime(t, &stuckModel{vocabSize: 42}, s)

	const duration = 200 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	assert.NoError(t, rt.loop(ctx, func() {}, nil))

	assert := assert.New(t)
	assert.Empty(s.recorded(), "skipped ticks leave the audible state untouched")
	expected := float64(duration) / float64(testGrid.TickPeriod())
	assert.InDelta(expected, float64(rt.Ticks()), 2.5)
}

func TestListenerMutatesOnlyChordState(t *testing.T) {
	s := &recordingSynth{}
	rt := newTestRealTime(t, ai.NewStub(42), s)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			rt.mu.Lock()
			rt.live.NoteOn(52)
			rt.mu.Unlock()
			rt.mu.Lock()
			rt.live.NoteOff(52)
			rt.mu.Unlock()
		}
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, rt.loop(ctx, func() {}, nil))
	<-done

	rt.mu.Lock()
	defer rt.mu.Unlock()
	assert.Equal(t, 0, rt.live.HoldCount(52-40))
}
