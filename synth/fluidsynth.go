package synth

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FluidSynth drives a fluidsynth child process over its command shell.
type FluidSynth struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewFluidSynth starts fluidsynth with the given soundfont.
func NewFluidSynth(soundfont string) (*FluidSynth, error) {
	if _, err := os.Stat(soundfont); err != nil {
		return nil, errors.Wrapf(ErrSynth, "soundfont %v: %v", soundfont, err)
	}

	cmd := exec.Command("fluidsynth", "-i", "-g", "1.5", soundfont)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(ErrSynth, "opening fluidsynth stdin: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(ErrSynth, "starting fluidsynth: %v", err)
	}
	log.WithFields(log.Fields{
		"function": "NewFluidSynth",
	}).Infof("fluidsynth started with %v", soundfont)
	return &FluidSynth{cmd: cmd, stdin: stdin}, nil
}

func (f *FluidSynth) NoteOn(pitch, velocity uint8) error {
	return f.send(fmt.Sprintf("noteon 0 %d %d\n", pitch, velocity))
}

func (f *FluidSynth) NoteOff(pitch uint8) error {
	return f.send(fmt.Sprintf("noteoff 0 %d\n", pitch))
}

func (f *FluidSynth) Close() error {
	f.send("quit\n")
	f.stdin.Close()
	if err := f.cmd.Wait(); err != nil {
		return errors.Wrapf(ErrSynth, "fluidsynth exited: %v", err)
	}
	return nil
}

func (f *FluidSynth) send(line string) error {
	if _, err := io.WriteString(f.stdin, line); err != nil {
		return errors.Wrapf(ErrSynth, "writing to fluidsynth: %v", err)
	}
	return nil
}
