package consultation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vetvisit/internal/platform/vetapi"
)

// PrescriptionStore is the remote prescription record. It is the single
// source of truth for items: the controller never patches items locally.
type PrescriptionStore interface {
	GetOrCreatePrescription(ctx context.Context, appointmentID string) (*vetapi.Prescription, error)
	GetPrescription(ctx context.Context, prescriptionID string) (*vetapi.Prescription, error)
	AddItem(ctx context.Context, prescriptionID string, form vetapi.MedicationItemForm) error
	UpdateItem(ctx context.Context, prescriptionID, itemID string, form vetapi.MedicationItemForm) error
	RemoveItem(ctx context.Context, prescriptionID, itemID string) error
	FinalizePrescription(ctx context.Context, prescriptionID string, signaturePNG []byte) (*vetapi.FinalizeResult, error)
	RegeneratePrescription(ctx context.Context, prescriptionID string, signaturePNG []byte) (*vetapi.FinalizeResult, error)
}

// Transcriber turns one recorded audio segment into a structured delta.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, appointmentID string) (*TranscriptionDelta, error)
}

// Recorder is the device-side audio capture bridge.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (uri string, audio []byte, err error)
}

// CredentialStore reads and writes the vet's professional license number,
// the finalize pre-flight gate.
type CredentialStore interface {
	License(ctx context.Context) (string, error)
	SetLicense(ctx context.Context, licenseNumber string) error
}

// Controller owns the lifecycle of visit-capture sessions.
type Controller struct {
	registry    Registry
	store       PrescriptionStore
	transcriber Transcriber
	recorder    Recorder
	credentials CredentialStore
	log         zerolog.Logger
}

func NewController(registry Registry, store PrescriptionStore, transcriber Transcriber, recorder Recorder, credentials CredentialStore, log zerolog.Logger) *Controller {
	return &Controller{
		registry:    registry,
		store:       store,
		transcriber: transcriber,
		recorder:    recorder,
		credentials: credentials,
		log:         log.With().Str("component", "consultation").Logger(),
	}
}

// Begin registers a new session in LOADING. The caller follows up with Load;
// a failed Load leaves the session in LOADING and Load can simply be retried.
func (c *Controller) Begin(appointmentID, petID, petName, ownerPhone string) *Session {
	s := NewSession(appointmentID, petID, petName, ownerPhone)
	c.registry.Save(s)
	c.log.Info().Str("session", s.ID.String()).Str("appointment", appointmentID).Msg("session started")
	return s
}

// Load fetches (or lazily creates) the remote draft prescription and moves
// the session to READY.
func (c *Controller) Load(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if err := s.advance("load", StateLoading); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	appointmentID := s.AppointmentID
	s.mu.Unlock()

	p, err := c.store.GetOrCreatePrescription(ctx, appointmentID)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("load draft: %w", err)
	}

	s.mu.Lock()
	s.draft.PrescriptionID = p.ID
	s.draft.Status = p.Status
	s.draft.PublicToken = p.PublicToken
	s.draft.Items = p.Items
	for field, value := range p.Vitals {
		s.draft.Vitals[field] = value
	}
	err = s.advance("load", StateReady)
	s.mu.Unlock()
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// StartRecording begins audio capture. Rejected unless the session is READY,
// so a new segment can never start while a previous upload is in flight.
func (c *Controller) StartRecording(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if err := s.advance("start recording", StateRecording); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	s.mu.Unlock()

	if err := c.recorder.Start(ctx); err != nil {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("start capture: %w", err)
	}
	return s.Snapshot(), nil
}

// StopResult is what one completed recording segment contributed.
type StopResult struct {
	Snapshot            Snapshot
	MedicationsDetected int
	OptimizationStats   map[string]int
}

// StopAndMerge stops capture, sends the audio segment to the transcription
// service and merges the returned delta. On any failure the draft is left
// exactly as it was: the delta and the authoritative item list are committed
// together or not at all. Items always come from a post-merge re-fetch of the
// prescription store, never from the transcription payload, so a manual edit
// that finished while the upload was in flight is preserved.
func (c *Controller) StopAndMerge(ctx context.Context, id uuid.UUID) (StopResult, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return StopResult{}, err
	}

	s.mu.Lock()
	if err := s.advance("stop recording", StateUploading); err != nil {
		s.mu.Unlock()
		return StopResult{Snapshot: s.Snapshot()}, err
	}
	appointmentID := s.AppointmentID
	prescriptionID := s.draft.PrescriptionID
	s.mu.Unlock()

	backToReady := func() {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
	}

	uri, audio, err := c.recorder.Stop(ctx)
	if err != nil || len(audio) == 0 {
		backToReady()
		if err == nil {
			err = fmt.Errorf("capture produced no audio")
		}
		c.log.Warn().Err(err).Str("session", id.String()).Msg("recording failed")
		return StopResult{Snapshot: s.Snapshot()}, fmt.Errorf("stop capture: %w", err)
	}

	delta, err := c.transcriber.Transcribe(ctx, audio, appointmentID)
	if err != nil {
		backToReady()
		return StopResult{Snapshot: s.Snapshot()}, fmt.Errorf("transcribe segment: %w", err)
	}

	fresh, err := c.store.GetPrescription(ctx, prescriptionID)
	if err != nil {
		backToReady()
		return StopResult{Snapshot: s.Snapshot()}, fmt.Errorf("reload items after merge: %w", err)
	}

	s.mu.Lock()
	applyDelta(&s.draft, delta)
	s.draft.Items = fresh.Items
	s.state = StateReady
	s.mu.Unlock()

	c.log.Info().
		Str("session", id.String()).
		Str("artifact", uri).
		Int("medications_detected", delta.MedicationsDetected).
		Int("actions", len(delta.DraftActions)).
		Msg("segment merged")

	return StopResult{
		Snapshot:            s.Snapshot(),
		MedicationsDetected: delta.MedicationsDetected,
		OptimizationStats:   delta.OptimizationStats,
	}, nil
}

func validateForm(form vetapi.MedicationItemForm) error {
	if strings.TrimSpace(form.Medication) == "" ||
		strings.TrimSpace(form.Dosage) == "" ||
		strings.TrimSpace(form.Frequency) == "" {
		return &ValidationError{Message: "Medication, dosage and frequency are required"}
	}
	return nil
}

// editGuard verifies the session allows manual medication edits. Edits are
// allowed while an upload is in flight; the post-merge re-fetch reconciles.
func editGuard(s *Session, op string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady && s.state != StateUploading {
		return "", &ErrInvalidTransition{From: s.state, Op: op}
	}
	return s.draft.PrescriptionID, nil
}

// reloadItems refreshes the draft's item list from the store after a
// successful write. On failure items stay at their last-known-good value.
func (c *Controller) reloadItems(ctx context.Context, s *Session, prescriptionID string) error {
	fresh, err := c.store.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return fmt.Errorf("reload items: %w", err)
	}
	s.mu.Lock()
	s.draft.Items = fresh.Items
	s.draft.Status = fresh.Status
	s.mu.Unlock()
	return nil
}

func (c *Controller) AddMedication(ctx context.Context, id uuid.UUID, form vetapi.MedicationItemForm) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := validateForm(form); err != nil {
		return s.Snapshot(), err
	}
	prescriptionID, err := editGuard(s, "add medication")
	if err != nil {
		return s.Snapshot(), err
	}
	if err := c.store.AddItem(ctx, prescriptionID, form); err != nil {
		return s.Snapshot(), fmt.Errorf("add medication: %w", err)
	}
	if err := c.reloadItems(ctx, s, prescriptionID); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

func (c *Controller) UpdateMedication(ctx context.Context, id uuid.UUID, itemID string, form vetapi.MedicationItemForm) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := validateForm(form); err != nil {
		return s.Snapshot(), err
	}
	prescriptionID, err := editGuard(s, "update medication")
	if err != nil {
		return s.Snapshot(), err
	}
	if err := c.store.UpdateItem(ctx, prescriptionID, itemID, form); err != nil {
		return s.Snapshot(), fmt.Errorf("update medication: %w", err)
	}
	if err := c.reloadItems(ctx, s, prescriptionID); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

func (c *Controller) RemoveMedication(ctx context.Context, id uuid.UUID, itemID string) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	prescriptionID, err := editGuard(s, "remove medication")
	if err != nil {
		return s.Snapshot(), err
	}
	if err := c.store.RemoveItem(ctx, prescriptionID, itemID); err != nil {
		return s.Snapshot(), fmt.Errorf("remove medication: %w", err)
	}
	if err := c.reloadItems(ctx, s, prescriptionID); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// RequestFinalize runs the pre-flight checks. With an empty item list it
// fails before any network call. With no license on the profile the session
// suspends in AWAITING_CREDENTIAL; otherwise it moves straight to SIGNING.
func (c *Controller) RequestFinalize(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if s.state != StateReady {
		defer s.mu.Unlock()
		return s.snapshotLocked(), &ErrInvalidTransition{From: s.state, Op: "finalize"}
	}
	if len(s.draft.Items) == 0 {
		defer s.mu.Unlock()
		return s.snapshotLocked(), &ValidationError{Message: "Add at least one medication before finalizing"}
	}
	s.mu.Unlock()

	license, err := c.credentials.License(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("check license: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if license == "" {
		if err := s.advance("finalize", StateAwaitingCredential); err != nil {
			return s.snapshotLocked(), err
		}
	} else {
		if err := s.advance("finalize", StateSigning); err != nil {
			return s.snapshotLocked(), err
		}
	}
	return s.snapshotLocked(), nil
}

// SubmitCredential stores the vet's license number (or the in-process
// sentinel for students/interns) and resumes the suspended finalize flow.
func (c *Controller) SubmitCredential(ctx context.Context, id uuid.UUID, licenseNumber string, inProcess bool) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}

	value := strings.TrimSpace(licenseNumber)
	if inProcess {
		value = LicenseInProcess
	}
	if value == "" {
		return s.Snapshot(), &ValidationError{Message: "Enter your professional license number"}
	}

	if s.State() != StateAwaitingCredential {
		return s.Snapshot(), &ErrInvalidTransition{From: s.State(), Op: "submit credential"}
	}
	if err := c.credentials.SetLicense(ctx, value); err != nil {
		return s.Snapshot(), fmt.Errorf("store license: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance("submit credential", StateSigning); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// CaptureSignature stores the rendered signature image in memory. No network
// call: the confirm action only becomes available once a signature exists.
func (c *Controller) CaptureSignature(id uuid.UUID, imagePNG []byte) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if len(imagePNG) == 0 {
		return s.Snapshot(), &ValidationError{Message: "Sign before confirming"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSigning {
		return s.snapshotLocked(), &ErrInvalidTransition{From: s.state, Op: "capture signature"}
	}
	s.signature = imagePNG
	return s.snapshotLocked(), nil
}

// CommitResult is the outcome of a successful finalize or regenerate.
type CommitResult struct {
	Snapshot    Snapshot
	PublicToken string
	ShareURL    string
}

// Commit finalizes a draft, or regenerates an already finalized prescription
// in place (the public token is preserved so shared links stay valid). On
// failure the session returns to SIGNING with the signature retained, so the
// vet can retry without re-signing.
func (c *Controller) Commit(ctx context.Context, id uuid.UUID) (CommitResult, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return CommitResult{}, err
	}

	s.mu.Lock()
	if len(s.signature) == 0 {
		defer s.mu.Unlock()
		return CommitResult{Snapshot: s.snapshotLocked()}, &ValidationError{Message: "Sign before confirming"}
	}
	if err := s.advance("commit", StateFinalizing); err != nil {
		s.mu.Unlock()
		return CommitResult{Snapshot: s.Snapshot()}, err
	}
	prescriptionID := s.draft.PrescriptionID
	regenerate := s.draft.Status == vetapi.StatusFinalized
	signature := s.signature
	s.mu.Unlock()

	var res *vetapi.FinalizeResult
	if regenerate {
		res, err = c.store.RegeneratePrescription(ctx, prescriptionID, signature)
	} else {
		res, err = c.store.FinalizePrescription(ctx, prescriptionID, signature)
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateSigning // signature retained for retry
		s.mu.Unlock()
		return CommitResult{Snapshot: s.Snapshot()}, fmt.Errorf("finalize prescription: %w", err)
	}

	s.mu.Lock()
	s.draft.Status = vetapi.StatusFinalized
	s.draft.PublicToken = res.PublicToken
	s.shareURL = res.ShareURL
	s.state = StateDone
	snap := s.snapshotLocked()
	s.mu.Unlock()

	c.log.Info().Str("session", id.String()).Bool("regenerate", regenerate).Msg("prescription finalized")
	return CommitResult{Snapshot: snap, PublicToken: res.PublicToken, ShareURL: res.ShareURL}, nil
}

// ReopenForEdit puts a finalized session back into the editable draft view.
// The remote record keeps its status and public token; the next commit takes
// the regenerate path.
func (c *Controller) ReopenForEdit(id uuid.UUID) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance("reopen", StateReady); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// CancelFinalize backs out of the credential or signing step.
func (c *Controller) CancelFinalize(id uuid.UUID) (Snapshot, error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingCredential && s.state != StateSigning {
		return s.snapshotLocked(), &ErrInvalidTransition{From: s.state, Op: "cancel finalize"}
	}
	if err := s.advance("cancel finalize", StateReady); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// Abandon ends the session without finalizing. The remote draft stays as-is.
func (c *Controller) Abandon(id uuid.UUID) {
	c.registry.Delete(id)
	c.log.Info().Str("session", id.String()).Msg("session abandoned")
}

// ShareMessage composes the pre-filled share text for the pet owner. When the
// owner's number is unknown the caller supplies one for this single send; it
// is never written back to the owner's profile.
func (c *Controller) ShareMessage(id uuid.UUID, phone string) (message, toPhone string, err error) {
	s, err := c.registry.GetByID(id)
	if err != nil {
		return "", "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Status != vetapi.StatusFinalized || s.shareURL == "" {
		return "", "", &ValidationError{Message: "Finalize the prescription before sharing"}
	}
	toPhone = strings.TrimSpace(phone)
	if toPhone == "" {
		toPhone = s.OwnerPhone
	}
	if toPhone == "" {
		return "", "", &ValidationError{Message: "Provide a contact number to share the prescription"}
	}
	message = fmt.Sprintf("Hola! Aquí está la receta de %s: %s", s.PetName, s.shareURL)
	return message, toPhone, nil
}

// snapshotLocked is Snapshot for callers already holding s.mu.
func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:            s.ID,
		AppointmentID: s.AppointmentID,
		PetID:         s.PetID,
		PetName:       s.PetName,
		State:         s.state,
		Draft:         s.draft.clone(),
		HasSignature:  len(s.signature) > 0,
		ShareURL:      s.shareURL,
	}
}
