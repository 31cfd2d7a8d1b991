package midi

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrInput marks malformed or unreadable MIDI input.
var ErrInput = errors.New("midi input error")

// ReadFile parses an SMF from disk.
func ReadFile(filepath string) (s *smf.SMF, e error) {
	// the smf parser panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.Wrap(ErrInput, r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(ErrInput, "reading midi file: %v", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrapf(ErrInput, "parsing midi file: %v", err)
	}
	return res, nil
}
