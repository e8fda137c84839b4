package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vetvisit/internal/platform/vetapi"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.View(id, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := dashboardID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.View(id, h.now())
	if err != nil {
		respondError(w, http.StatusNotFound, "Dashboard not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type toggleGroupRequest struct {
	TaskIDs []TaskID `json:"taskIds"`
}

func (h *Handler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := dashboardID(w, r)
	if !ok {
		return
	}
	var req toggleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.svc.ToggleGroup(r.Context(), id, req.TaskIDs); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.View(id, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type toggleSingleRequest struct {
	TaskID TaskID `json:"taskId"`
}

func (h *Handler) ToggleSingle(w http.ResponseWriter, r *http.Request) {
	id, ok := dashboardID(w, r)
	if !ok {
		return
	}
	var req toggleSingleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.svc.ToggleSingle(r.Context(), id, req.TaskID); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.View(id, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := dashboardID(w, r)
	if !ok {
		return
	}
	h.svc.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/dashboard", h.Load)
	r.Route("/dashboard/{dashboardID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Close)
		r.Post("/toggle-group", h.ToggleGroup)
		r.Post("/toggle", h.ToggleSingle)
	})
}

func dashboardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "dashboardID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid dashboard ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *vetapi.Error
	if errors.As(err, &apiErr) {
		respondError(w, http.StatusBadGateway, vetapi.UserMessage(err))
		return
	}
	respondError(w, http.StatusInternalServerError, vetapi.UserMessage(err))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
