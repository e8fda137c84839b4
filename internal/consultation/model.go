package consultation

import (
	"fmt"

	"vetvisit/internal/platform/vetapi"
)

// State is the session-level phase of one visit capture.
type State string

const (
	StateLoading            State = "LOADING"
	StateReady              State = "READY"
	StateRecording          State = "RECORDING"
	StateUploading          State = "UPLOADING"
	StateAwaitingCredential State = "AWAITING_CREDENTIAL"
	StateSigning            State = "SIGNING"
	StateFinalizing         State = "FINALIZING"
	StateDone               State = "DONE"
)

// DraftAction is one AI-detected action (e.g. "applied rabies vaccine").
// The action log is append-only across all recording segments of a visit.
type DraftAction struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TranscriptionDelta is what the AI service extracts from one audio segment.
// A nil vitals value means "nothing observed for this field": it never clears
// an existing reading.
type TranscriptionDelta struct {
	Vitals              map[string]*string `json:"vitals,omitempty"`
	DraftActions        []DraftAction      `json:"draftActions,omitempty"`
	MedicationsDetected int                `json:"medicationsDetectedCount"`
	OptimizationStats   map[string]int     `json:"optimizationStats,omitempty"`
}

// Draft is the evolving in-memory picture of the visit's prescription. Items
// always mirror the remote store; vitals and actions accumulate locally from
// transcription deltas.
type Draft struct {
	PrescriptionID string                  `json:"prescriptionId"`
	Status         string                  `json:"status"` // vetapi.StatusDraft or StatusFinalized
	PublicToken    string                  `json:"publicToken,omitempty"`
	Vitals         map[string]string       `json:"vitals"`
	DraftActions   []DraftAction           `json:"draftActions"`
	Items          []vetapi.MedicationItem `json:"items"`
}

// ValidationError is a client-side precondition failure. It is raised before
// any network call and never changes remote state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrInvalidTransition reports an operation called in a state that does not
// allow it.
type ErrInvalidTransition struct {
	From State
	Op   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("consultation: cannot %s while %s", e.Op, e.From)
}

// LicenseInProcess is the sentinel stored for vets whose professional license
// is still being issued (student/intern path). Any non-empty stored value,
// sentinel included, satisfies the finalize gate.
const LicenseInProcess = "EN_TRAMITE"
