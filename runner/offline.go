package runner

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/engine"
	"github.com/hitoshitoshi/SoloBass/midi"
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/pitch"
	"github.com/hitoshitoshi/SoloBass/quantize"
)

// Offline feeds a whole quantized chord sequence through an engine. The
// steps are strictly sequential; step k never sees chord data past index k.
type Offline struct {
	Engine *engine.Engine
}

// Run calls Step exactly once per chord vector and collects the tokens.
// The first failing step aborts the whole run.
func (o *Offline) Run(ctx context.Context, chords []model.ChordVector) ([]int, error) {
	tokens := make([]int, 0, len(chords))
	for i, chord := range chords {
		tok, err := o.Engine.Step(ctx, chord)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d of %d", i, len(chords))
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// GenerateFile reads a MIDI file, generates a bass line over its guitar
// chords, and writes a copy with the generated track appended. Nothing is
// written when any stage fails.
func GenerateFile(ctx context.Context, m ai.Model, temperature float64, inPath, outPath string) error {
	logger := log.WithFields(log.Fields{
		"function": "runner.GenerateFile",
	})

	src, err := midi.ReadFile(inPath)
	if err != nil {
		return err
	}

	bassEnc, err := pitch.NewEncoder(pitch.Range{Low: constants.BassLowestPitch, High: constants.BassHighestPitch})
	if err != nil {
		return err
	}
	guitarEnc, err := pitch.NewEncoder(pitch.Range{Low: constants.GuitarLowestPitch, High: constants.GuitarHighestPitch})
	if err != nil {
		return err
	}
	if m.VocabSize() != bassEnc.VocabSize() {
		return errors.Wrapf(ai.ErrModel, "model vocab %d, bass vocab %d", m.VocabSize(), bassEnc.VocabSize())
	}

	guitar, bass := midi.ExtractNotes(src)
	g := quantize.Grid{BPM: midi.Tempo(src), StepsPerQuarter: constants.StepsPerQuarter}
	steps := g.Steps(midi.TotalSeconds(guitar, bass))
	if steps == 0 {
		return errors.Wrap(midi.ErrInput, "no chord data in input file")
	}
	chords := quantize.ChordSequence(guitar, g, guitarEnc, steps)
	logger.Infof("Quantized %d guitar notes into %d steps at %.1f BPM", len(guitar), steps, g.BPM)

	eng, err := engine.New(m, temperature, bassEnc.Rest())
	if err != nil {
		return err
	}

	off := Offline{Engine: eng}
	tokens, err := off.Run(ctx, chords)
	if err != nil {
		return err
	}

	notes, err := quantize.Notes(tokens, bassEnc)
	if err != nil {
		return err
	}
	logger.Infof("Generated %d bass notes", len(notes))

	return midi.WriteGenerated(src, notes, g, outPath)
}
