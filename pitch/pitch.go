package pitch

import (
	"github.com/pkg/errors"
)

var ErrRange = errors.New("pitch range error")

// Range is an inclusive MIDI pitch range. It fixes the vocabulary size for
// a session.
type Range struct {
	Low  uint8
	High uint8
}

func (r Range) Size() int {
	return int(r.High) - int(r.Low) + 1
}

// Encoder maps MIDI pitches to dense vocabulary indices. The vocabulary is
// one entry per pitch in range, plus HOLD and REST.
type Encoder struct {
	r Range
}

func NewEncoder(r Range) (Encoder, error) {
	if r.High < r.Low {
		return Encoder{}, errors.Wrapf(ErrRange, "high %d below low %d", r.High, r.Low)
	}
	return Encoder{r: r}, nil
}

func (e Encoder) Range() Range {
	return e.r
}

// Hold is the token marking continuation of the previous note.
func (e Encoder) Hold() int {
	return e.r.Size()
}

// Rest is the token marking silence.
func (e Encoder) Rest() int {
	return e.r.Size() + 1
}

func (e Encoder) VocabSize() int {
	return e.r.Size() + 2
}

// Encode maps a MIDI pitch to its vocabulary index. Pitches outside the
// range are dropped, not clamped: ok is false and the caller skips them.
func (e Encoder) Encode(p uint8) (int, bool) {
	if p < e.r.Low || p > e.r.High {
		return 0, false
	}
	return int(p) - int(e.r.Low), true
}

// Decode maps a vocabulary index back to its MIDI pitch. HOLD and REST
// carry no pitch and are rejected.
func (e Encoder) Decode(tok int) (uint8, error) {
	if tok < 0 || tok >= e.VocabSize() {
		return 0, errors.Wrapf(ErrRange, "token %d outside vocabulary of %d", tok, e.VocabSize())
	}
	if tok >= e.r.Size() {
		return 0, errors.Wrapf(ErrRange, "token %d has no pitch", tok)
	}
	return uint8(tok) + e.r.Low, nil
}

// IsPitch reports whether tok is a concrete note token.
func (e Encoder) IsPitch(tok int) bool {
	return tok >= 0 && tok < e.r.Size()
}
