package synth

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MidiPort plays through a MIDI output port instead of fluidsynth, for
// hardware synths.
type MidiPort struct {
	send    func(gomidi.Message) error
	channel uint8
}

func NewMidiPort(port int, channel uint8) (*MidiPort, error) {
	out, err := gomidi.OutPort(port)
	if err != nil {
		return nil, errors.Wrapf(ErrSynth, "output port %d: %v", port, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(ErrSynth, "opening output port %d: %v", port, err)
	}
	return &MidiPort{send: send, channel: channel}, nil
}

func (m *MidiPort) NoteOn(pitch, velocity uint8) error {
	if err := m.send(gomidi.NoteOn(m.channel, pitch, velocity)); err != nil {
		return errors.Wrapf(ErrSynth, "note on: %v", err)
	}
	return nil
}

func (m *MidiPort) NoteOff(pitch uint8) error {
	if err := m.send(gomidi.NoteOff(m.channel, pitch)); err != nil {
		return errors.Wrapf(ErrSynth, "note off: %v", err)
	}
	return nil
}

func (m *MidiPort) Close() error {
	return nil
}
