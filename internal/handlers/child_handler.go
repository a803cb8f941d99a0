package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"zonuko/internal/logger"
	"zonuko/internal/models"
	"zonuko/internal/service"
	"zonuko/internal/validation"
)

const maxBodyBytes = 64 << 10

// ChildHandler serves the child-facing JSON API
type ChildHandler struct {
	dashboard *service.DashboardService
	progress  *service.ProgressService
	log       *logger.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(dashboard *service.DashboardService, progress *service.ProgressService, log *logger.Logger) *ChildHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ChildHandler{
		dashboard: dashboard,
		progress:  progress,
		log:       log.With("handler", "ChildHandler"),
	}
}

// Register mounts the child routes on mux
func (h *ChildHandler) Register(mux *http.ServeMux, m *Middleware) {
	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("GET /api/child/dashboard", m.RequireChild(h.Dashboard))
	mux.HandleFunc("GET /api/child/projects", m.RequireChild(h.Projects))
	mux.HandleFunc("GET /api/child/growth", m.RequireChild(h.Growth))
	mux.HandleFunc("POST /api/child/projects/{id}/start", m.RequireChild(m.RateLimit(h.StartProject)))
	mux.HandleFunc("POST /api/child/projects/{id}/complete", m.RequireChild(m.RateLimit(h.CompleteProject)))
	mux.HandleFunc("POST /api/child/projects/{id}/rate", m.RequireChild(m.RateLimit(h.RateProject)))
}

// Health reports that the process is serving
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard returns the paced dashboard bundle
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request, child *models.Child) {
	slots := 0
	if raw := r.URL.Query().Get("slots"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", nil)
			return
		}
		slots = n
	}

	d, err := h.dashboard.Load(r.Context(), child.ID, slots)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to load dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Projects lists available projects filtered by category, difficulty, skill
// and type
func (h *ChildHandler) Projects(w http.ResponseWriter, r *http.Request, child *models.Child) {
	q := r.URL.Query()
	filter := service.Filter{
		Category: models.Category(q.Get("category")),
		Skill:    q.Get("skill"),
		Type:     models.ProjectType(q.Get("type")),
	}
	if raw := q.Get("difficulty"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", nil)
			return
		}
		filter.Difficulty = d
	}

	views, err := h.dashboard.Browse(r.Context(), child.ID, filter)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to browse projects", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": views})
}

// Growth returns the child's progression snapshot
func (h *ChildHandler) Growth(w http.ResponseWriter, r *http.Request, child *models.Child) {
	report, err := h.progress.Growth(r.Context(), child.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to load growth", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func projectID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// decodeBody reads an optional JSON body into v and validates it. An empty
// body leaves v at its zero value.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return validation.Struct(v)
}

// StartProject moves a project to in progress
func (h *ChildHandler) StartProject(w http.ResponseWriter, r *http.Request, child *models.Child) {
	id, ok := projectID(r)
	if !ok {
		respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	res, err := h.progress.StartProject(r.Context(), child.ID, id)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to start project", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type completeRequest struct {
	Reflection string `json:"reflection" validate:"max=5000"`
}

// CompleteProject finishes a project and returns the growth it earned
func (h *ChildHandler) CompleteProject(w http.ResponseWriter, r *http.Request, child *models.Child) {
	id, ok := projectID(r)
	if !ok {
		respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	res, err := h.progress.CompleteProject(r.Context(), child.ID, id, req.Reflection)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to complete project", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type rateRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RateProject records a 1..5 rating on a completed project
func (h *ChildHandler) RateProject(w http.ResponseWriter, r *http.Request, child *models.Child) {
	id, ok := projectID(r)
	if !ok {
		respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	var req rateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, nil, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	res, err := h.progress.RateProject(r.Context(), child.ID, id, req.Rating)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to rate project", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
