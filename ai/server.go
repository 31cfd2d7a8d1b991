package ai

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/hitoshitoshi/SoloBass/model"
)

// Server exposes a Model over the serving contract:
//
//	POST /load    {"weights_path": ...}        -> {"vocab_size": N}
//	POST /predict {"chord", "prev_token", ...} -> {"distribution", "hidden"}
//
// The production server is the Python process wrapping the trained LSTM;
// this reference implementation wraps any Model (normally the stub) so the
// Go side can be exercised end to end without it.
type Server struct {
	model Model
}

func NewServer(m Model) *Server {
	return &Server{model: m}
}

// Handler returns the routed HTTP handler, CORS-wrapped like the rest of
// our serving surfaces.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/load", s.handleLoad).Methods("POST")
	router.HandleFunc("/predict", s.handlePredict).Methods("POST")
	return cors.Default().Handler(router)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var input model.LoadRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Could not unmarshal request body: "+err.Error(), 400)
		return
	}
	log.WithFields(log.Fields{
		"function": "Server.handleLoad",
	}).Infof("load requested for %v", input.WeightsPath)

	json.NewEncoder(w).Encode(model.LoadResponse{VocabSize: s.model.VocabSize()})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var input model.PredictRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Could not unmarshal request body: "+err.Error(), 400)
		return
	}

	dist, hidden, err := s.model.Predict(r.Context(), input.Chord, input.PrevToken, State(input.Hidden))
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	json.NewEncoder(w).Encode(model.PredictResponse{
		Distribution: dist,
		Hidden:       json.RawMessage(hidden),
	})
}
