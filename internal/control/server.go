package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"discpipe/internal/logging"
	"discpipe/internal/queue"
)

// Server exposes a Service over the JSON-over-HTTP control surface.
type Server struct {
	bind   string
	svc    *Service
	logger *slog.Logger
	srv    *http.Server
	ln     net.Listener
}

// NewServer builds a Server bound to addr (host:port). It does not start
// listening until Start is called.
func NewServer(addr string, svc *Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{bind: addr, svc: svc, logger: logger.With("component", "control-server")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /control/jobs", s.handleListJobs)
	mux.HandleFunc("GET /control/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /control/jobs/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /control/jobs/{id}/identify", s.handleIdentify)
	mux.HandleFunc("POST /control/jobs/{id}/skip", s.handleSkip)
	mux.HandleFunc("POST /control/jobs/{id}/pre_identify", s.handlePreIdentify)
	mux.HandleFunc("POST /control/jobs/{id}/archive", s.handleArchive)
	mux.HandleFunc("GET /control/collection", s.handleListCollection)
	mux.HandleFunc("GET /control/health", s.handleHealth)
	mux.HandleFunc("GET /control/oversight", s.handleOversightCheck)
	mux.HandleFunc("GET /control/oversight/history", s.handleOversightHistory)
	mux.HandleFunc("POST /control/oversight/fix_encoding", s.handleOversightFixEncoding)
	mux.HandleFunc("POST /control/active_mode/toggle", s.handleToggleActiveMode)
	mux.HandleFunc("POST /control/active_mode", s.handleSetActiveMode)
	mux.HandleFunc("GET /control/wanted", s.handleListWanted)
	mux.HandleFunc("POST /control/wanted", s.handleAddWanted)
	mux.HandleFunc("DELETE /control/wanted/{id}", s.handleRemoveWanted)

	s.srv = &http.Server{
		Handler:           s.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withRequestID tags every inbound request with a fresh correlation id so
// handler-side logging (and any downstream service call that logs with
// the request context) can be traced back to a single HTTP call.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		logger := logging.WithContext(ctx, s.logger)
		logger.Debug("control request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start begins listening. The server shuts down automatically when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("control surface listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("control surface listening", "address", ln.Addr().String())
	return nil
}

// Handler returns the server's http.Handler, for use with an externally
// managed http.Server (e.g. in tests via httptest.NewServer).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Stop shuts the server down, releasing its listener.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(shutdownCtx)
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func (s *Server) pathJobID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := queue.Status(r.URL.Query().Get("status"))
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	excludeArchived := r.URL.Query().Get("include_archived") != "true"
	jobs, err := s.svc.ListJobs(r.Context(), status, limit, excludeArchived)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.svc.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeDetail(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": job})
}

func (s *Server) handleListCollection(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Collection(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

func (s *Server) handleListWanted(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Wanted(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.svc.Health(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "health": health})
}

func (s *Server) handleOversightHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	events, err := s.svc.OversightHistory(r.Context(), limit)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.svc.Approve(r.Context(), id)
	s.respondJob(w, job, err)
}

type identifyRequest struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var body identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job, err := s.svc.Identify(r.Context(), id, body.Title, body.Year)
	s.respondJob(w, job, err)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.svc.Skip(r.Context(), id)
	s.respondJob(w, job, err)
}

func (s *Server) handlePreIdentify(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var body identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job, err := s.svc.PreIdentify(r.Context(), id, body.Title, body.Year)
	s.respondJob(w, job, err)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathJobID(r)
	if !ok {
		s.writeDetail(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.svc.Archive(r.Context(), id)
	s.respondJob(w, job, err)
}

func (s *Server) handleOversightCheck(w http.ResponseWriter, r *http.Request) {
	issues, err := s.svc.OversightCheck(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "issues": issues})
}

func (s *Server) handleOversightFixEncoding(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.OversightFixEncoding(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "repaired": count})
}

func (s *Server) handleToggleActiveMode(w http.ResponseWriter, r *http.Request) {
	active, err := s.svc.ToggleActiveMode(r.Context())
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "active": active})
}

type setActiveModeRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetActiveMode(w http.ResponseWriter, r *http.Request) {
	var body setActiveModeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.SetActiveMode(r.Context(), body.Active); err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "active": body.Active})
}

type addWantedRequest struct {
	Title       string            `json:"title"`
	Year        *int              `json:"year"`
	ContentType queue.ContentType `json:"content_type"`
	CatalogID   *int64            `json:"catalog_id"`
	PosterRef   string            `json:"poster_ref"`
	Notes       string            `json:"notes"`
}

func (s *Server) handleAddWanted(w http.ResponseWriter, r *http.Request) {
	var body addWantedRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.svc.AddWanted(r.Context(), body.Title, body.Year, body.ContentType, body.CatalogID, body.PosterRef, body.Notes)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleRemoveWanted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid wanted id")
		return
	}
	if err := s.svc.RemoveWanted(r.Context(), id); err != nil {
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) respondJob(w http.ResponseWriter, job *queue.Job, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			s.writeDetail(w, http.StatusNotFound, "job not found")
		case errors.Is(err, ErrInvalidState):
			s.writeDetail(w, http.StatusBadRequest, "job is not in a state that allows this operation")
		default:
			s.writeDetail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": job.ID, "status": job.Status})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode control response", "error", err)
	}
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
