package model

// ChordVector is a multi-hot encoding of the guitar pitches active during
// one grid step. Index i corresponds to pitch lowest+i; a value of 1 means
// the pitch sounds at all during the step. Its length is fixed for a
// session.
type ChordVector []float32

// Active reports whether the bit at idx is set.
func (v ChordVector) Active(idx int) bool {
	return idx >= 0 && idx < len(v) && v[idx] > 0.5
}

// Clone returns an independent copy, for snapshotting live state.
func (v ChordVector) Clone() ChordVector {
	res := make(ChordVector, len(v))
	copy(res, v)
	return res
}

// NoteEvent is a note in absolute time, as read from a MIDI file.
type NoteEvent struct {
	Pitch uint8
	// Start and End are in seconds from the beginning of the file.
	Start float64
	End   float64
}

// BassNote is a decoded note in grid-step units.
type BassNote struct {
	Pitch uint8
	// Step is the onset grid step, Steps the duration in grid steps.
	Step  int
	Steps int
}
