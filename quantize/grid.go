package quantize

import (
	"math"
	"time"
)

// Grid is a fixed subdivision of musical time. Chord vectors, bass tokens
// and the live tick clock all run on the same grid.
type Grid struct {
	BPM             float64
	StepsPerQuarter int
}

// StepSeconds is the duration of one grid step in seconds.
func (g Grid) StepSeconds() float64 {
	return 60.0 / g.BPM / float64(g.StepsPerQuarter)
}

// TickPeriod is the wall-clock period of the live generation loop, e.g. a
// sixteenth note at 120 BPM gives 125ms.
func (g Grid) TickPeriod() time.Duration {
	return time.Duration(g.StepSeconds() * float64(time.Second))
}

// StepAt maps an absolute time in seconds to its grid step index.
func (g Grid) StepAt(t float64) int {
	if t <= 0 {
		return 0
	}
	return int(math.Floor(t/g.StepSeconds() + 1e-9))
}

// Steps is the number of grid steps needed to cover [0, end).
func (g Grid) Steps(end float64) int {
	if end <= 0 {
		return 0
	}
	return int(math.Ceil(end/g.StepSeconds() - 1e-9))
}
