package constants

import "os"

// Time quantization. A sixteenth-note grid at the default tempo gives a
// 125ms generation step.
const (
	DefaultBPM      = 120
	StepsPerQuarter = 4
)

// Bass token range. One vocabulary entry per pitch, plus HOLD and REST.
const (
	BassLowestPitch  = 23
	BassHighestPitch = 62
)

// Guitar chord vector range.
const (
	GuitarLowestPitch  = 40
	GuitarHighestPitch = 84
)

// Output track settings for the generated bass.
const (
	BassProgram  = 33 // GM acoustic bass
	BassVelocity = 100
	BassChannel  = 0
)

// GM program numbers (0-based). Also include +1 for files that are 1-based.
var GuitarPrograms = makeProgramSet(24, 32)
var BassPrograms = makeProgramSet(32, 40)

func makeProgramSet(lo, hi uint8) map[uint8]bool {
	res := make(map[uint8]bool)
	for p := lo; p < hi; p++ {
		res[p] = true
		res[p+1] = true
	}
	return res
}

func GetWeightsPath() string {
	path := os.Getenv("WEIGHTS_PATH")
	if path != "" {
		return path
	}
	return "./saved_models/unrolled_lstm.weights.h5"
}

func GetModelServerAddr() string {
	addr := os.Getenv("MODEL_SERVER_ADDR")
	if addr != "" {
		return addr
	}
	return "http://localhost:8808"
}

func GetSoundfontPath() string {
	path := os.Getenv("SOUNDFONT_PATH")
	if path != "" {
		return path
	}
	return "./soundfonts/bass.sf2"
}
