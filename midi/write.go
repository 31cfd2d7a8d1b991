package midi

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/model"
	"github.com/hitoshitoshi/SoloBass/quantize"
)

// WriteGenerated writes a new file containing every track of the source
// file unchanged plus one generated bass track. The source's time format
// and tempo events carry over as-is. The file is written through a temp
// file and renamed, so a failed run leaves no partial output.
func WriteGenerated(src *smf.SMF, notes []model.BassNote, g quantize.Grid, path string) error {
	ticks, ok := src.TimeFormat.(smf.MetricTicks)
	if !ok {
		return errors.Wrapf(ErrInput, "unsupported time format %v", src.TimeFormat)
	}

	var out smf.SMF
	out.TimeFormat = src.TimeFormat
	for _, track := range src.Tracks {
		out.Tracks = append(out.Tracks, track)
	}
	out.Tracks = append(out.Tracks, bassTrack(notes, ticks, g))

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return errors.Wrapf(ErrInput, "encoding output midi: %v", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return errors.Wrapf(ErrInput, "creating output dir: %v", err)
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0666); err != nil {
		return errors.Wrapf(ErrInput, "writing output midi: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(ErrInput, "finalizing output midi: %v", err)
	}
	return nil
}

func bassTrack(notes []model.BassNote, ticks smf.MetricTicks, g quantize.Grid) smf.Track {
	ticksPerStep := ticks.Ticks4th() / uint32(g.StepsPerQuarter)

	var tr smf.Track
	tr.Add(0, gomidi.ProgramChange(constants.BassChannel, constants.BassProgram))

	var cursor uint32 // absolute ticks already emitted
	for _, n := range notes {
		onTick := uint32(n.Step) * ticksPerStep
		offTick := uint32(n.Step+n.Steps) * ticksPerStep
		tr.Add(onTick-cursor, gomidi.NoteOn(constants.BassChannel, n.Pitch, constants.BassVelocity))
		tr.Add(offTick-onTick, gomidi.NoteOff(constants.BassChannel, n.Pitch))
		cursor = offTick
	}
	tr.Close(0)
	return tr
}
