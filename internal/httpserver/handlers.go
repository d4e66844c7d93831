package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/apimachinery/pkg/labels"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.appState.Status())
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.workers.WorkersQuery(r.Context()))
}

func (s *Server) handleWorker(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	name := chi.URLParam(r, "name")

	info, ok := s.workers.WorkerQuery(r.Context(), namespace, name)
	if !ok {
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "worker " + namespace + "/" + name + " not found"})

		return
	}

	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleServiceEndpoints(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	name := chi.URLParam(r, "name")

	set, ok := s.endpoints.Endpoints(namespace, name)
	if !ok {
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "service " + namespace + "/" + name + " not found"})

		return
	}

	s.writeJSON(w, r, http.StatusOK, set)
}

// handleSelectorEndpoints resolves ?selector=app=web&port=80 against the current pods.
func (s *Server) handleSelectorEndpoints(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	query := r.URL.Query()

	selector, err := labels.ConvertSelectorToLabelsMap(query.Get("selector"))
	if err != nil || len(selector) == 0 {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "selector must be a non-empty list of key=value pairs"})

		return
	}

	port, err := strconv.ParseInt(query.Get("port"), 10, 32)
	if err != nil || port <= 0 {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "port must be a positive integer"})

		return
	}

	s.writeJSON(w, r, http.StatusOK, s.endpoints.Resolve(namespace, selector, int32(port)))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode response",
			"path", r.URL.Path,
			"traceID", middleware.GetReqID(r.Context()),
			"reason", err,
		)
	}
}
