package webui

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/logger"
	"github.com/trolley-tracker/internal/tracker/state"
)

// Server is the HTTP surface the presentation layer talks to. The map
// renderer stays an external collaborator: it pulls snapshots from
// /api/state and posts selections (including marker clicks) back.
type Server struct {
	coordinator *state.Coordinator
	logger      logger.Logger
}

func NewServer(coordinator *state.Coordinator, log logger.Logger) *Server {
	return &Server{
		coordinator: coordinator,
		logger:      log,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()

	router.GET("/healthz", s.handleHealth)
	router.GET("/api/state", s.handleState)
	router.PUT("/api/route", s.handleSetRoute)
	router.PUT("/api/stop", s.handleSelectStop)
	router.PUT("/api/car", s.handleSelectCar)
	router.POST("/api/sidebar/toggle", s.handleToggleSidebar)

	return s.requestLogging(router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

func (s *Server) handleSetRoute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Route string `json:"route"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	dir, err := catalog.ParseDirection(body.Route)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.coordinator.SetRoute(dir)
	s.writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

func (s *Server) handleSelectStop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Stop string `json:"stop"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.coordinator.SelectStop(body.Stop); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

func (s *Server) handleSelectCar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		ID string `json:"id"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	// An unknown id resets the selection to none; that is a valid
	// outcome, not a client error.
	s.coordinator.SelectCar(body.ID)
	s.writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

func (s *Server) handleToggleSidebar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	open := s.coordinator.ToggleSidebar()
	s.writeJSON(w, http.StatusOK, map[string]bool{"sidebarOpen": open})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
