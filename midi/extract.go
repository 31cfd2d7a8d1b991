package midi

import (
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/util"
)

// Tempo returns the file's initial tempo in BPM, falling back to the
// default when the file carries no tempo event.
func Tempo(s *smf.SMF) float64 {
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var bpm float64
			if event.Message.GetMetaTempo(&bpm) && bpm > 0 {
				return bpm
			}
		}
	}
	return constants.DefaultBPM
}

type reducedEvent struct {
	offset    float64 // seconds
	isNoteOff bool
	note      uint8
}

// ExtractNotes walks every track and splits note events into guitar and
// bass streams by GM program number, with onsets and offsets in seconds.
// Tracks with no program change count as guitar, which matches chord-only
// input files.
func ExtractNotes(s *smf.SMF) (guitar, bass []model.NoteEvent) {
	for _, events := range s.Tracks {
		var reduced []reducedEvent
		var absTicks int64
		var program uint8
		hasProgram := false
		for _, event := range events {
			absTicks += int64(event.Delta)
			absTime := float64(s.TimeAt(absTicks)) / 1e6
			var channel, key, velocity uint8
			switch {
			case event.Message.GetProgramChange(&channel, &program):
				hasProgram = true
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				reduced = append(reduced, reducedEvent{offset: absTime, note: key})
			case event.Message.GetNoteEnd(&channel, &key):
				reduced = append(reduced, reducedEvent{offset: absTime, isNoteOff: true, note: key})
			}
		}

		isBass := hasProgram && constants.BassPrograms[program]
		if hasProgram && !isBass && !constants.GuitarPrograms[program] {
			continue
		}

		notes := pairEvents(reduced)
		if isBass {
			bass = append(bass, notes...)
		} else {
			guitar = append(guitar, notes...)
		}
	}
	sortByOnset(guitar)
	sortByOnset(bass)
	return guitar, bass
}

// pairEvents matches note-ons with their note-offs per pitch. An on with no
// matching off is dropped.
func pairEvents(events []reducedEvent) []model.NoteEvent {
	// prioritize smaller offsets then note off
	sort.Slice(events, func(i, j int) bool {
		if events[i].offset != events[j].offset {
			return events[i].offset < events[j].offset
		}
		return events[i].isNoteOff
	})

	var res []model.NoteEvent
	pressed := make(map[uint8]float64)
	for _, evt := range events {
		if evt.isNoteOff {
			start, ok := pressed[evt.note]
			if !ok {
				continue
			}
			delete(pressed, evt.note)
			res = append(res, model.NoteEvent{Pitch: evt.note, Start: start, End: evt.offset})
		} else {
			pressed[evt.note] = evt.offset
		}
	}
	return res
}

func sortByOnset(notes []model.NoteEvent) {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
}

// TotalSeconds is the end time of the last note in either stream.
func TotalSeconds(guitar, bass []model.NoteEvent) float64 {
	var end float64
	for _, n := range guitar {
		end = util.Max(end, n.End)
	}
	for _, n := range bass {
		end = util.Max(end, n.End)
	}
	return end
}
