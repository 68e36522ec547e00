// Package server exposes recognition over HTTP: one-shot predictions
// and live sessions that are re-predicted on every ink change.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"
	"github.com/juruen/inkmath/session"
)

const maxBody = 8 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type sessionEntry struct {
	sess    *session.Session
	mu      sync.Mutex
	strokes []ink.Stroke
}

type ApiServer struct {
	recognizer *recognizer.Recognizer
	divisor    float64

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewApiServer serves r; divisor is the min stroke size divisor applied
// when a request carries its canvas size
func NewApiServer(r *recognizer.Recognizer, divisor float64) *ApiServer {
	return &ApiServer{
		recognizer: r,
		divisor:    divisor,
		sessions:   map[string]*sessionEntry{},
	}
}

func (s *ApiServer) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

func (s *ApiServer) writeSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}

func (s *ApiServer) readInk(w http.ResponseWriter, r *http.Request) ([]ink.Stroke, *InkInput, bool) {
	var in InkInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return nil, nil, false
	}
	strokes, err := in.Ink(s.divisor)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, nil, false
	}
	return strokes, &in, true
}

// POST /api/predict
func (s *ApiServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	strokes, _, ok := s.readInk(w, r)
	if !ok {
		return
	}

	answer, err := s.recognizer.Predict(r.Context(), strokes)
	if err != nil {
		if errors.Is(err, recognizer.ErrUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		s.writeError(w, http.StatusRequestTimeout, err)
		return
	}
	s.writeSuccess(w, newPrediction(answer))
}

func (s *ApiServer) entry(id string, create bool) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok && create {
		e = &sessionEntry{sess: session.New(s.recognizer, session.OnUpdate(func(st session.State) {
			log.Trace.Printf("session %s: generation %d, digits %q", id, st.Generation, st.Answer.Digits)
		}))}
		s.sessions[id] = e
		log.Info.Printf("session %s opened", id)
	}
	return e
}

// POST /api/sessions/{id}/ink
func (s *ApiServer) handleInk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	strokes, in, ok := s.readInk(w, r)
	if !ok {
		return
	}

	e := s.entry(id, true)
	e.mu.Lock()
	if in.Append {
		e.strokes = append(e.strokes, strokes...)
	} else {
		e.strokes = strokes
	}
	gen := e.sess.Submit(e.strokes)
	e.mu.Unlock()

	s.writeSuccess(w, map[string]interface{}{"id": id, "generation": gen})
}

// DELETE /api/sessions/{id}/ink
func (s *ApiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e := s.entry(id, false)
	if e == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s doesn't exist", id))
		return
	}

	e.mu.Lock()
	e.strokes = nil
	e.sess.Clear()
	e.mu.Unlock()

	s.writeSuccess(w, map[string]interface{}{"id": id, "generation": e.sess.Generation()})
}

// GET /api/sessions/{id}?wait=true
func (s *ApiServer) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e := s.entry(id, false)
	if e == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s doesn't exist", id))
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		if err := e.sess.WaitContext(r.Context()); err != nil {
			s.writeError(w, http.StatusRequestTimeout, err)
			return
		}
	}

	s.writeSuccess(w, newSessionState(id, e.sess.State()))
}

// DELETE /api/sessions/{id}
func (s *ApiServer) handleClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s doesn't exist", id))
		return
	}
	e.sess.Close()
	log.Info.Printf("session %s closed", id)
	s.writeSuccess(w, map[string]string{"id": id})
}

func newSessionState(id string, st session.State) SessionState {
	out := SessionState{ID: id, Generation: st.Generation, Pending: st.Pending}
	if st.Err != nil {
		out.Error = st.Err.Error()
	} else if st.Answer.Results != nil || st.Answer.Err != nil {
		out.Answer = newPrediction(st.Answer)
	}
	return out
}

// Close ends every session
func (s *ApiServer) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*sessionEntry{}
	s.mu.Unlock()

	for _, e := range sessions {
		e.sess.Close()
	}
}

func (s *ApiServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/sessions/{id}/ink", s.handleInk)
	mux.HandleFunc("DELETE /api/sessions/{id}/ink", s.handleClear)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleState)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClose)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !s.recognizer.Available() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("recognition unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
	<title>inkmath REST API</title>
</head>
<body>
	<h1>inkmath REST API</h1>
	<h2>Endpoints:</h2>
	<ul>
		<li>POST /api/predict - Recognize the number in a drawing</li>
		<li>POST /api/sessions/{id}/ink - Replace or extend a session's ink</li>
		<li>DELETE /api/sessions/{id}/ink - Clear a session's ink</li>
		<li>GET /api/sessions/{id} - Latest answer (wait=true blocks on running passes)</li>
		<li>DELETE /api/sessions/{id} - Close a session</li>
		<li>GET /health - Health check</li>
	</ul>
</body>
</html>
		`)
	})
	return mux
}

// Run serves on port until the listener fails
func Run(port string, srv *ApiServer) error {
	log.Info.Printf("Starting HTTP server on port %s", port)
	defer srv.Close()
	return http.ListenAndServe(":"+port, srv.Handler())
}
