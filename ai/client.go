package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hitoshitoshi/SoloBass/model"
)

// Client is a Model backed by a model server (see server.go for the
// contract). Load must succeed before the first Predict.
type Client struct {
	addr      string
	http      *http.Client
	vocabSize int
}

func NewClient(addr string) *Client {
	return &Client{
		addr: addr,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Load asks the server to load weights from the given path and records the
// resulting vocabulary size. A missing or corrupt weights file surfaces as
// a model error.
func (c *Client) Load(ctx context.Context, weightsPath string) error {
	body := model.LoadRequestBody{WeightsPath: weightsPath}
	var res model.LoadResponse
	if err := c.post(ctx, "/load", body, &res); err != nil {
		return err
	}
	if res.VocabSize <= 0 {
		return errors.Wrapf(ErrModel, "server reported vocab size %d", res.VocabSize)
	}
	c.vocabSize = res.VocabSize
	return nil
}

func (c *Client) Predict(ctx context.Context, chord model.ChordVector, prevToken int, hidden State) ([]float64, State, error) {
	body := model.PredictRequestBody{
		Chord:     chord,
		PrevToken: prevToken,
		Hidden:    json.RawMessage(hidden),
	}
	var res model.PredictResponse
	if err := c.post(ctx, "/predict", body, &res); err != nil {
		return nil, nil, err
	}
	if len(res.Distribution) != c.vocabSize {
		return nil, nil, errors.Wrapf(ErrModel, "distribution length %d, want %d", len(res.Distribution), c.vocabSize)
	}
	return res.Distribution, State(res.Hidden), nil
}

func (c *Client) VocabSize() int {
	return c.vocabSize
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(ErrModel, "encoding %v request: %v", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(ErrModel, "building %v request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(ErrModel, "calling %v: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrap(ErrModel, fmt.Sprintf("%v returned %d: %s", path, resp.StatusCode, msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(ErrModel, "decoding %v response: %v", path, err)
	}
	return nil
}
