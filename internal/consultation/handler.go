package consultation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vetvisit/internal/platform/vetapi"
)

// PDFRenderer produces the shareable prescription document.
type PDFRenderer interface {
	RenderPrescription(snap Snapshot, clinicName string) ([]byte, error)
}

type Handler struct {
	ctrl       *Controller
	pdf        PDFRenderer
	clinicName string
}

func NewHandler(ctrl *Controller, pdf PDFRenderer, clinicName string) *Handler {
	return &Handler{ctrl: ctrl, pdf: pdf, clinicName: clinicName}
}

type beginRequest struct {
	AppointmentID string `json:"appointmentId"`
	PetID         string `json:"petId"`
	PetName       string `json:"petName"`
	OwnerPhone    string `json:"ownerPhone,omitempty"`
}

func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.AppointmentID == "" || req.PetID == "" {
		respondError(w, http.StatusBadRequest, "appointmentId and petId are required")
		return
	}

	s := h.ctrl.Begin(req.AppointmentID, req.PetID, req.PetName, req.OwnerPhone)
	snap, err := h.ctrl.Load(r.Context(), s.ID)
	if err != nil {
		// The session stays in LOADING; the client retries via POST .../load.
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.ctrl.registry.GetByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.Load(r.Context(), id)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) StartRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.StartRecording(r.Context(), id)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) StopRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.ctrl.StopAndMerge(r.Context(), id)
	if err != nil {
		writeOpError(w, res.Snapshot, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session":                  res.Snapshot,
		"medicationsDetectedCount": res.MedicationsDetected,
		"optimizationStats":        res.OptimizationStats,
	})
}

func (h *Handler) AddMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var form vetapi.MedicationItemForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	snap, err := h.ctrl.AddMedication(r.Context(), id, form)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var form vetapi.MedicationItemForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	snap, err := h.ctrl.UpdateMedication(r.Context(), id, chi.URLParam(r, "itemID"), form)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) RemoveMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.RemoveMedication(r.Context(), id, chi.URLParam(r, "itemID"))
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) RequestFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.RequestFinalize(r.Context(), id)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type credentialRequest struct {
	LicenseNumber string `json:"licenseNumber"`
	InProcess     bool   `json:"inProcess"`
}

func (h *Handler) SubmitCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	snap, err := h.ctrl.SubmitCredential(r.Context(), id, req.LicenseNumber, req.InProcess)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type signatureRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

func (h *Handler) CaptureSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req signatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid signature image")
		return
	}
	snap, err := h.ctrl.CaptureSignature(id, image)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.ctrl.Commit(r.Context(), id)
	if err != nil {
		writeOpError(w, res.Snapshot, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session":     res.Snapshot,
		"publicToken": res.PublicToken,
		"shareUrl":    res.ShareURL,
	})
}

func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.ReopenForEdit(id)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) CancelFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.ctrl.CancelFinalize(id)
	if err != nil {
		writeOpError(w, snap, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type shareRequest struct {
	Phone string `json:"phone,omitempty"`
	// WithDocument also returns a PDF rendering for share targets that
	// accept a file.
	WithDocument bool `json:"withDocument,omitempty"`
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	message, phone, err := h.ctrl.ShareMessage(id, req.Phone)
	if err != nil {
		writeOpError(w, Snapshot{}, err)
		return
	}

	resp := map[string]any{"message": message, "phone": phone}
	if req.WithDocument && h.pdf != nil {
		s, err := h.ctrl.registry.GetByID(id)
		if err == nil {
			if doc, err := h.pdf.RenderPrescription(s.Snapshot(), h.clinicName); err == nil {
				resp["documentBase64"] = base64.StdEncoding.EncodeToString(doc)
			}
			// A failed render never blocks the text share.
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	h.ctrl.Abandon(id)
	w.WriteHeader(http.StatusNoContent)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/consultations", h.Begin)
	r.Route("/consultations/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Abandon)
		r.Post("/load", h.Load)
		r.Post("/recording/start", h.StartRecording)
		r.Post("/recording/stop", h.StopRecording)
		r.Post("/medications", h.AddMedication)
		r.Put("/medications/{itemID}", h.UpdateMedication)
		r.Delete("/medications/{itemID}", h.RemoveMedication)
		r.Post("/finalize/request", h.RequestFinalize)
		r.Post("/finalize/credential", h.SubmitCredential)
		r.Post("/finalize/signature", h.CaptureSignature)
		r.Post("/finalize/commit", h.Commit)
		r.Post("/finalize/cancel", h.CancelFinalize)
		r.Post("/reopen", h.Reopen)
		r.Post("/share", h.Share)
	})
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// noMedicationsMessage replaces the server's wording with the actionable one
// the capture screen shows for this specific rejection.
const noMedicationsMessage = "The prescription has no medications. Add at least one and try again."

// writeOpError maps a controller error onto the response, including the
// session snapshot so the client can render the post-failure state.
func writeOpError(w http.ResponseWriter, snap Snapshot, err error) {
	status := http.StatusBadGateway
	message := vetapi.UserMessage(err)

	var verr *ValidationError
	var terr *ErrInvalidTransition
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		message = verr.Message
	case errors.As(err, &terr):
		status = http.StatusConflict
		message = terr.Error()
	case vetapi.CodeOf(err) == "no_medications":
		status = http.StatusUnprocessableEntity
		message = noMedicationsMessage
	}

	respondJSON(w, status, map[string]any{
		"error":   message,
		"session": snap,
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
