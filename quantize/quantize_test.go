package quantize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/pitch"
)

func guitarEncoder(t *testing.T) pitch.Encoder {
	enc, err := pitch.NewEncoder(pitch.Range{Low: 40, High: 84})
	assert.NoError(t, err)
	return enc
}

func bassEncoder(t *testing.T) pitch.Encoder {
	enc, err := pitch.NewEncoder(pitch.Range{Low: 23, High: 62})
	assert.NoError(t, err)
	return enc
}

func TestTickPeriodSixteenthAt120(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	assert.Equal(t, 125*time.Millisecond, g.TickPeriod())
}

func TestGridStepMapping(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	assert := assert.New(t)
	assert.Equal(0, g.StepAt(0))
	assert.Equal(0, g.StepAt(0.124))
	assert.Equal(1, g.StepAt(0.125))
	assert.Equal(8, g.Steps(1.0))
	assert.Equal(9, g.Steps(1.01))
	assert.Equal(0, g.Steps(0))
}

func TestChordSequencePartialOverlapCountsAsActive(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	enc := guitarEncoder(t)
	events := []model.NoteEvent{
		// covers step 0 fully and only grazes step 1
		{Pitch: 52, Start: 0, End: 0.130},
		// entirely inside step 2
		{Pitch: 55, Start: 0.26, End: 0.30},
	}
	seq := ChordSequence(events, g, enc, 4)

	assert := assert.New(t)
	assert.Len(seq, 4)
	for _, vec := range seq {
		assert.Len(vec, enc.Range().Size())
	}
	assert.True(seq[0].Active(52 - 40))
	assert.True(seq[1].Active(52 - 40))
	assert.False(seq[2].Active(52 - 40))
	assert.True(seq[2].Active(55 - 40))
	assert.False(seq[3].Active(55 - 40))
}

func TestChordSequenceDropsOutOfRangePitches(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	enc := guitarEncoder(t)
	events := []model.NoteEvent{
		{Pitch: 30, Start: 0, End: 1},
		{Pitch: 100, Start: 0, End: 1},
	}
	for _, vec := range ChordSequence(events, g, enc, 4) {
		for i := range vec {
			assert.False(t, vec.Active(i))
		}
	}
}

func TestLiveHoldCountsHandleOverlappingSamePitch(t *testing.T) {
	enc := guitarEncoder(t)
	live := NewLive(enc)
	assert := assert.New(t)

	live.NoteOn(52)
	live.NoteOn(52)
	assert.True(live.Snapshot().Active(12))
	assert.Equal(2, live.HoldCount(12))

	live.NoteOff(52)
	assert.True(live.Snapshot().Active(12), "still held by the second press")

	live.NoteOff(52)
	assert.False(live.Snapshot().Active(12))
	assert.Equal(0, live.HoldCount(12))
}

func TestLiveHoldCountsNeverGoNegative(t *testing.T) {
	enc := guitarEncoder(t)
	live := NewLive(enc)
	assert := assert.New(t)

	live.NoteOff(52)
	live.NoteOff(52)
	assert.Equal(0, live.HoldCount(12))

	live.NoteOn(52)
	assert.Equal(1, live.HoldCount(12))
	assert.True(live.Snapshot().Active(12))
}

func TestLiveVectorLengthIsConstant(t *testing.T) {
	enc := guitarEncoder(t)
	live := NewLive(enc)
	assert := assert.New(t)
	assert.Equal(enc.Range().Size(), live.Size())

	live.NoteOn(40)
	live.NoteOn(84)
	live.NoteOff(40)
	assert.Len(live.Snapshot(), enc.Range().Size())
}

func TestLiveSnapshotIsIndependentCopy(t *testing.T) {
	enc := guitarEncoder(t)
	live := NewLive(enc)
	live.NoteOn(52)
	snap := live.Snapshot()
	live.NoteOff(52)
	assert.True(t, snap.Active(12))
}

func TestTokensEmitPitchHoldRest(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	enc := bassEncoder(t)
	events := []model.NoteEvent{
		// three steps starting at step 1
		{Pitch: 40, Start: 0.125, End: 0.5},
	}
	tokens := Tokens(events, g, enc, 6)

	pitchTok, _ := enc.Encode(40)
	assert.Equal(t, []int{
		enc.Rest(), pitchTok, enc.Hold(), enc.Hold(), enc.Rest(), enc.Rest(),
	}, tokens)
}

func TestTokenRoundTrip(t *testing.T) {
	g := Grid{BPM: 120, StepsPerQuarter: 4}
	enc := bassEncoder(t)
	dt := g.StepSeconds()
	events := []model.NoteEvent{
		{Pitch: 28, Start: 0, End: 2 * dt},
		{Pitch: 33, Start: 3 * dt, End: 4 * dt},
		{Pitch: 28, Start: 6 * dt, End: 9 * dt},
	}

	tokens := Tokens(events, g, enc, 10)
	notes, err := Notes(tokens, enc)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.BassNote{
		{Pitch: 28, Step: 0, Steps: 2},
		{Pitch: 33, Step: 3, Steps: 1},
		{Pitch: 28, Step: 6, Steps: 3},
	}, notes)
}

func TestNotesCloseOnNewPitchWithoutOverlap(t *testing.T) {
	enc := bassEncoder(t)
	tokA, _ := enc.Encode(30)
	tokB, _ := enc.Encode(35)
	tokens := []int{tokA, enc.Hold(), tokB, enc.Hold(), enc.Rest()}

	notes, err := Notes(tokens, enc)
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.BassNote{
		{Pitch: 30, Step: 0, Steps: 2},
		{Pitch: 35, Step: 2, Steps: 2},
	}, notes)

	// total coverage never exceeds the sequence length
	var covered int
	for _, n := range notes {
		covered += n.Steps
	}
	assert.LessOrEqual(covered, len(tokens))
}

func TestNotesTreatLeadingHoldAsSilence(t *testing.T) {
	enc := bassEncoder(t)
	notes, err := Notes([]int{enc.Hold(), enc.Hold(), enc.Rest()}, enc)
	assert.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNotesRejectOutOfVocabularyTokens(t *testing.T) {
	enc := bassEncoder(t)
	_, err := Notes([]int{0, enc.VocabSize()}, enc)
	assert.ErrorIs(t, err, pitch.ErrRange)
}
