package quantize

import (
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/pitch"
)

// ChordSequence converts note events into one multi-hot chord vector per
// grid step. A bit is set if the note overlaps the step's window at all;
// partial overlap counts as active. Pitches outside the encoder's range are
// dropped.
func ChordSequence(events []model.NoteEvent, g Grid, enc pitch.Encoder, steps int) []model.ChordVector {
	res := make([]model.ChordVector, steps)
	for i := range res {
		res[i] = make(model.ChordVector, enc.Range().Size())
	}

	dt := g.StepSeconds()
	for _, evt := range events {
		idx, ok := enc.Encode(evt.Pitch)
		if !ok {
			continue
		}
		first := g.StepAt(evt.Start)
		last := g.Steps(evt.End)
		for s := first; s < last && s < steps; s++ {
			// overlap check guards zero-length notes at a step boundary
			if evt.Start < float64(s+1)*dt && evt.End > float64(s)*dt {
				res[s][idx] = 1
			}
		}
	}
	return res
}

// Live is the incremental chord quantizer for real-time input. A note-on
// increments the pitch's hold counter and sets its bit; a note-off
// decrements the counter and clears the bit only once the counter reaches
// zero, so overlapping same-pitch events resolve correctly. Counters never
// go negative.
//
// Live keeps no history; only the current vector is exposed. It is not
// internally synchronized: the owning runner guards it with its lock.
type Live struct {
	enc    pitch.Encoder
	counts []int
	vec    model.ChordVector
}

func NewLive(enc pitch.Encoder) *Live {
	size := enc.Range().Size()
	return &Live{
		enc:    enc,
		counts: make([]int, size),
		vec:    make(model.ChordVector, size),
	}
}

func (l *Live) NoteOn(p uint8) {
	idx, ok := l.enc.Encode(p)
	if !ok {
		return
	}
	l.counts[idx]++
	l.vec[idx] = 1
}

func (l *Live) NoteOff(p uint8) {
	idx, ok := l.enc.Encode(p)
	if !ok {
		return
	}
	if l.counts[idx] > 0 {
		l.counts[idx]--
	}
	if l.counts[idx] == 0 {
		l.vec[idx] = 0
	}
}

// Snapshot returns a full copy of the current chord vector.
func (l *Live) Snapshot() model.ChordVector {
	return l.vec.Clone()
}

// HoldCount exposes the counter for a vector index.
func (l *Live) HoldCount(idx int) int {
	return l.counts[idx]
}

// Size is the fixed chord vector length.
func (l *Live) Size() int {
	return len(l.vec)
}
