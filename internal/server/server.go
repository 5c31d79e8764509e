// Package server exposes a memsim.Manager over HTTP/JSON.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joshuapare/memsim/pkg/api"
	"github.com/joshuapare/memsim/pkg/memsim"
)

// maxBodyBytes bounds request bodies; every request shape is tiny.
const maxBodyBytes = 1 << 16

// Server routes HTTP requests to one manager.
type Server struct {
	mgr *memsim.Manager
	log *slog.Logger
	mux *http.ServeMux
}

// New builds a server for mgr. A nil logger discards.
func New(mgr *memsim.Manager, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{mgr: mgr, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("POST /request", s.handleRequest)
	s.mux.HandleFunc("POST /release", s.handleRelease)
	s.mux.HandleFunc("POST /compact", s.handleCompact)
	s.mux.HandleFunc("POST /reset", s.handleReset)
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.NewStatusResponse(s.mgr.Status()))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	rep := s.mgr.Report()
	s.writeJSON(w, http.StatusOK, api.NewStatsResponse(rep.Stats, rep.Counters))
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req api.AllocateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeValidation(w, err)
		return
	}
	pid, size, strategy, err := req.Parsed()
	if err != nil {
		s.writeValidation(w, err)
		return
	}

	snap, err := s.mgr.Allocate(pid, size, strategy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.Succeeded(snap, "Memory successfully allocated for %s", pid))
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req api.ReleaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeValidation(w, err)
		return
	}

	snap, err := s.mgr.Release(req.PID())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.Succeeded(snap, "Memory successfully released for %s", req.PID()))
}

func (s *Server) handleCompact(w http.ResponseWriter, _ *http.Request) {
	snap, _ := s.mgr.Compact()
	s.writeJSON(w, http.StatusOK, api.Succeeded(snap, "Memory successfully compacted."))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	snap := s.mgr.Reset()
	s.writeJSON(w, http.StatusOK, api.Succeeded(snap, "Memory manager successfully reset to initial state."))
}

// decode reads a JSON body into dst, answering 422 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, api.ValidationResponse{
			Detail: []api.FieldError{{Loc: []string{"body"}, Msg: fmt.Sprintf("invalid JSON body: %v", err)}},
		})
		return false
	}
	return true
}

func (s *Server) writeValidation(w http.ResponseWriter, err error) {
	var fe api.FieldErrors
	if errors.As(err, &fe) {
		s.writeJSON(w, http.StatusUnprocessableEntity, api.ValidationResponse{Detail: fe})
		return
	}
	s.writeJSON(w, http.StatusUnprocessableEntity, api.ValidationResponse{
		Detail: []api.FieldError{{Loc: []string{"body"}, Msg: api.Message(err)}},
	})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var verr *memsim.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, api.ValidationResponse{
			Detail: []api.FieldError{{Loc: []string{"body", verr.Field}, Msg: verr.Reason}},
		})
	case errors.Is(err, memsim.ErrInsufficientSpace):
		s.writeJSON(w, http.StatusBadRequest, api.Failed(err))
	case errors.Is(err, memsim.ErrDuplicateProcess):
		s.writeJSON(w, http.StatusConflict, api.Failed(err))
	case errors.Is(err, memsim.ErrProcessNotFound):
		s.writeJSON(w, http.StatusNotFound, api.Failed(err))
	default:
		s.log.Error("unexpected manager error", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, api.Failed(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		s.log.Warn("write response", "error", err)
	}
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
