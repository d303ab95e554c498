package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/catalog"
	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// JobsHandler serves the download API: descriptor resolution, job
// submission, status polling, and artifact retrieval.
type JobsHandler struct {
	catalog catalog.Catalog
	worker  *jobs.Worker
	logger  *log.Logger
}

// NewJobsHandler wires the API handler to its catalog and job worker.
func NewJobsHandler(cat catalog.Catalog, worker *jobs.Worker, logger *log.Logger) *JobsHandler {
	return &JobsHandler{catalog: cat, worker: worker, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *JobsHandler) Routes() []string {
	return []string{
		"POST /api/fetch",
		"POST /api/download",
		"GET /api/status/{id}",
		"GET /api/jobs",
		"GET /api/file/{id}",
		"GET /health",
	}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/fetch":
		h.fetch(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/download":
		h.download(w, r)
	case r.URL.Path == "/api/jobs":
		h.list(w, r)
	case r.URL.Path == "/health":
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case strings.HasPrefix(r.URL.Path, "/api/file/"):
		h.file(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/status/"):
		h.status(w, r)
	default:
		http.NotFound(w, r)
	}
}

type submitRequest struct {
	URL string `json:"url"`
}

func (h *JobsHandler) fetch(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeSubmit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.catalog.Authenticate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}

	desc, err := h.catalog.ResolveTrack(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, desc)
}

func (h *JobsHandler) download(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeSubmit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := h.worker.Store().Create(models.TrackDescriptor{})
	// the job outlives this request
	go h.worker.Process(context.Background(), status.ID, req.URL)

	h.writeJSON(w, http.StatusAccepted, status)
}

func (h *JobsHandler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.worker.Store().Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.worker.Store().List())
}

func (h *JobsHandler) file(w http.ResponseWriter, r *http.Request) {
	status, err := h.worker.Store().Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if status.Stage != jobs.StageComplete || status.ArtifactPath == "" {
		h.writeError(w, fmt.Errorf("%w: job %s has no artifact yet", shared.ErrArtifactMissing, status.ID))
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(status.ArtifactPath)))
	http.ServeFile(w, r, status.ArtifactPath)
}

func (h *JobsHandler) decodeSubmit(r *http.Request) (submitRequest, error) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput)
	}
	if req.URL == "" {
		return req, fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	}
	return req, nil
}

func (h *JobsHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

func (h *JobsHandler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, shared.ErrTrackNotFound), errors.Is(err, shared.ErrJobNotFound):
		code = http.StatusNotFound
	case errors.Is(err, shared.ErrArtifactMissing):
		code = http.StatusConflict
	case errors.Is(err, shared.ErrRateLimited):
		code = http.StatusTooManyRequests
	case errors.Is(err, shared.ErrUpstreamUnavailable), errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrMissingCredentials):
		code = http.StatusBadGateway
	}

	h.writeJSON(w, code, map[string]string{"error": err.Error()})
}
