package runner

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/hitoshitoshi/SoloBass/engine"
	"github.com/hitoshitoshi/SoloBass/midi"
	"github.com/hitoshitoshi/SoloBass/pitch"
	"github.com/hitoshitoshi/SoloBass/quantize"
	"github.com/hitoshitoshi/SoloBass/synth"
)

const noPitch = -1

// ErrDevice marks a MIDI device lost mid-session.
var ErrDevice = errors.New("midi device error")

// RealTime owns one live chord quantizer and one engine session. A MIDI
// listener mutates the live chord state; a fixed-period tick loop reads it,
// steps the engine, and forwards note events to the synthesizer. The two
// share exactly one lock around the live state and nothing else.
type RealTime struct {
	Grid quantize.Grid

	eng   *engine.Engine
	enc   pitch.Encoder // bass vocabulary, for decoding sampled tokens
	synth synth.Synth

	mu   sync.Mutex
	live *quantize.Live

	sounding int // MIDI pitch currently on at the synth, or noPitch
	ticks    int

	deb    func(func())
	logger *log.Entry
}

// NewRealTime wires a session together. guitarEnc fixes the live chord
// vector size; bassEnc decodes the engine's tokens.
func NewRealTime(eng *engine.Engine, bassEnc, guitarEnc pitch.Encoder, g quantize.Grid, s synth.Synth) *RealTime {
	return &RealTime{
		Grid:     g,
		eng:      eng,
		enc:      bassEnc,
		synth:    s,
		live:     quantize.NewLive(guitarEnc),
		sounding: noPitch,
		deb:      debounce.New(100 * time.Millisecond),
		logger: log.WithFields(log.Fields{
			"function": "RealTime",
			"session":  eng.Session(),
		}),
	}
}

// Run listens on the given MIDI input port and generates until ctx is
// cancelled. On shutdown the listener stops first, the current tick
// finishes, outstanding NoteOffs go out, and the engine session closes.
func (r *RealTime) Run(ctx context.Context, inPort int) error {
	in, err := gomidi.InPort(inPort)
	if err != nil {
		return errors.Wrapf(midi.ErrInput, "input port %d: %v", inPort, err)
	}
	stop, err := gomidi.ListenTo(in, r.handleMessage)
	if err != nil {
		return errors.Wrapf(midi.ErrInput, "listening on port %d: %v", inPort, err)
	}

	return r.loop(ctx, stop, in.IsOpen)
}

// loop runs the tick clock until ctx is cancelled or the input device
// disappears. healthy is polled once per tick; a dead device runs the same
// cancellation sequence and then surfaces as an error.
func (r *RealTime) loop(ctx context.Context, stopListener func(), healthy func() bool) error {
	period := r.Grid.TickPeriod()
	r.logger.Infof("Tick period %s (%d steps per quarter at %.1f BPM)", period, r.Grid.StepsPerQuarter, r.Grid.BPM)

	// absolute deadlines, so a slow tick never shifts the grid
	start := time.Now()
	deadline := start.Add(period)
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for k := 1; ; k++ {
		select {
		case <-ctx.Done():
			stopListener()
			r.shutdown()
			return nil
		case <-timer.C:
		}
		if healthy != nil && !healthy() {
			stopListener()
			r.shutdown()
			return errors.Wrap(ErrDevice, "input device disconnected")
		}
		r.tick(ctx, deadline.Add(period))
		deadline = start.Add(time.Duration(k+1) * period)
		timer.Reset(time.Until(deadline))
	}
}

// Ticks reports how many grid steps have run.
func (r *RealTime) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// tick snapshots the chord state and advances the engine by one step. A
// predict call still running at the next deadline is abandoned and the tick
// skipped; the sounding note is left as it was.
func (r *RealTime) tick(ctx context.Context, nextDeadline time.Time) {
	r.mu.Lock()
	chord := r.live.Snapshot()
	r.ticks++
	r.mu.Unlock()

	stepCtx, cancel := context.WithDeadline(ctx, nextDeadline)
	tok, err := r.eng.Step(stepCtx, chord)
	cancel()
	if err != nil {
		r.logger.Warnf("Skipping tick: %v", err)
		return
	}
	r.emit(tok)
}

// emit translates a token into synthesizer events. HOLD sustains, REST
// silences, a pitch different from the sounding one replaces it.
func (r *RealTime) emit(tok int) {
	switch {
	case tok == r.enc.Hold():
		return
	case tok == r.enc.Rest():
		r.silence()
	default:
		p, err := r.enc.Decode(tok)
		if err != nil {
			r.logger.Warnf("Dropping token: %v", err)
			return
		}
		if int(p) == r.sounding {
			return
		}
		r.silence()
		if err := r.synth.NoteOn(p, 64); err != nil {
			r.logger.Warnf("Note on failed: %v", err)
			return
		}
		r.sounding = int(p)
	}
}

func (r *RealTime) silence() {
	if r.sounding == noPitch {
		return
	}
	if err := r.synth.NoteOff(uint8(r.sounding)); err != nil {
		r.logger.Warnf("Note off failed: %v", err)
	}
	r.sounding = noPitch
}

func (r *RealTime) shutdown() {
	r.silence()
	if err := r.eng.Close(); err != nil {
		r.logger.Warnf("Closing engine: %v", err)
	}
	r.logger.Info("Session closed")
}

// handleMessage runs on the MIDI driver callback. It is the sole writer of
// the live chord state and never touches the tick clock.
func (r *RealTime) handleMessage(msg gomidi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		r.mu.Lock()
		r.live.NoteOn(key)
		r.mu.Unlock()
	case msg.GetNoteEnd(&channel, &key):
		r.mu.Lock()
		r.live.NoteOff(key)
		r.mu.Unlock()
	default:
		return
	}
	r.deb(r.logChord)
}

func (r *RealTime) logChord() {
	r.mu.Lock()
	chord := r.live.Snapshot()
	r.mu.Unlock()
	active := 0
	for i := range chord {
		if chord.Active(i) {
			active++
		}
	}
	r.logger.Debugf("Chord now holds %d notes", active)
}
