// Package httpd hosts the update endpoint over HTTP and a websocket
// live channel speaking the same JSON frames. It is a thin boundary:
// decode, hand to the coordinator, encode the result, and map
// user-facing errors to {"error": message}.
package httpd

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulse-ui/pulse/pkg/dispatch"
	"github.com/pulse-ui/pulse/pkg/queue"
)

// maxBodyBytes caps one inbound request body.
const maxBodyBytes = 1 << 20

// Server hosts the component update endpoints.
type Server struct {
	coord  *queue.Coordinator
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server over a coordinator.
func New(coord *queue.Coordinator, opts ...Option) *Server {
	s := &Server{
		coord:  coord,
		logger: slog.Default().With("component", "httpd"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with the message, live, metrics and
// health routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/message/{componentName}", s.handleMessage)
	r.Get("/live", s.handleLive)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	componentName := chi.URLParam(r, "componentName")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	req, err := decodeRequest(componentName, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.coord.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, result)
}

// writeResult encodes either the queued ack or the envelope.
func (s *Server) writeResult(w http.ResponseWriter, result *queue.Result) {
	if result.Ack != nil {
		writeJSON(w, http.StatusOK, result.Ack)
		return
	}
	writeJSON(w, http.StatusOK, result.Envelope)
}

// writeError maps the caught error kinds onto responses: user-facing
// errors and malformed bodies become {"error": message}; anything
// else is a transport-level failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if msg, ok := dispatch.UserFacingMessage(err); ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
		return
	}
	s.logger.Error("request failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
