// Package synth is the audible end of the real-time path. The runner only
// sees NoteOn/NoteOff; the backend is either a fluidsynth child process
// rendering a soundfont or a raw MIDI output port.
package synth

import "github.com/pkg/errors"

// ErrSynth marks an unavailable or failing synthesizer backend.
var ErrSynth = errors.New("synth error")

type Synth interface {
	NoteOn(pitch, velocity uint8) error
	NoteOff(pitch uint8) error
	Close() error
}
