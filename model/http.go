package model

import "encoding/json"

// Wire types for the model-serving contract. The hidden state is opaque to
// the Go side; it is produced by the server and passed back verbatim on the
// next step.

type LoadRequestBody struct {
	WeightsPath string `json:"weights_path"`
}

type LoadResponse struct {
	VocabSize int `json:"vocab_size"`
}

type PredictRequestBody struct {
	Chord     ChordVector     `json:"chord"`
	PrevToken int             `json:"prev_token"`
	Hidden    json.RawMessage `json:"hidden,omitempty"`
}

type PredictResponse struct {
	Distribution []float64       `json:"distribution"`
	Hidden       json.RawMessage `json:"hidden,omitempty"`
}
