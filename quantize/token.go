package quantize

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/pitch"
)

// Tokens quantizes monophonic note events into a token per grid step: the
// pitch token where a note starts, HOLD while it continues, REST where
// nothing sounds. Out-of-range pitches are dropped. A note starting while
// another still holds cuts the first one off, so the result always decodes
// to non-overlapping events.
func Tokens(events []model.NoteEvent, g Grid, enc pitch.Encoder, steps int) []int {
	res := make([]int, steps)
	for i := range res {
		res[i] = enc.Rest()
	}

	sorted := make([]model.NoteEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for _, evt := range sorted {
		tok, ok := enc.Encode(evt.Pitch)
		if !ok {
			continue
		}
		first := g.StepAt(evt.Start)
		last := g.Steps(evt.End)
		if first >= steps {
			continue
		}
		res[first] = tok
		for s := first + 1; s < last && s < steps; s++ {
			res[s] = enc.Hold()
		}
	}
	return res
}

// Notes decodes a token sequence back into discrete notes in grid-step
// units. A pitch token opens a note, HOLD extends the open note, REST or a
// different pitch token closes it. A HOLD with no open note counts as
// silence. The decoded events never overlap and cover at most len(tokens)
// steps.
func Notes(tokens []int, enc pitch.Encoder) ([]model.BassNote, error) {
	var res []model.BassNote

	open := -1 // index into res of the currently open note
	for s, tok := range tokens {
		if tok < 0 || tok >= enc.VocabSize() {
			return nil, errors.Wrapf(pitch.ErrRange, "token %d at step %d", tok, s)
		}
		switch {
		case tok == enc.Hold():
			if open >= 0 {
				res[open].Steps++
			}
		case tok == enc.Rest():
			open = -1
		default:
			p, err := enc.Decode(tok)
			if err != nil {
				return nil, err
			}
			res = append(res, model.BassNote{Pitch: p, Step: s, Steps: 1})
			open = len(res) - 1
		}
	}
	return res, nil
}
