package consultation

import (
	"sync"

	"github.com/google/uuid"

	"vetvisit/internal/platform/vetapi"
)

// transitions is the allowed session state graph. Anything not listed here is
// rejected with ErrInvalidTransition instead of being left to UI disablement.
var transitions = map[State][]State{
	StateLoading:            {StateLoading, StateReady},
	StateReady:              {StateRecording, StateAwaitingCredential, StateSigning},
	StateRecording:          {StateUploading, StateReady},
	StateUploading:          {StateReady},
	StateAwaitingCredential: {StateSigning, StateReady},
	StateSigning:            {StateFinalizing, StateReady},
	StateFinalizing:         {StateDone, StateSigning},
	StateDone:               {StateReady},
}

// Session is the in-memory state of one visit capture. All mutation goes
// through the Controller, which holds mu across each state check.
type Session struct {
	ID            uuid.UUID
	AppointmentID string
	PetID         string
	PetName       string
	OwnerPhone    string // pet owner's contact number, may be empty

	mu        sync.Mutex
	state     State
	draft     Draft
	signature []byte
	shareURL  string
}

func NewSession(appointmentID, petID, petName, ownerPhone string) *Session {
	return &Session{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		PetID:         petID,
		PetName:       petName,
		OwnerPhone:    ownerPhone,
		state:         StateLoading,
		draft: Draft{
			Vitals:       map[string]string{},
			DraftActions: []DraftAction{},
		},
	}
}

// advance moves the session to next, or fails if the current state does not
// allow it. Callers must hold s.mu.
func (s *Session) advance(op string, next State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			return nil
		}
	}
	return &ErrInvalidTransition{From: s.state, Op: op}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot is a read-only copy of the session for presentation.
type Snapshot struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	PetID         string    `json:"petId"`
	PetName       string    `json:"petName"`
	State         State     `json:"state"`
	Draft         Draft     `json:"draft"`
	HasSignature  bool      `json:"hasSignature"`
	ShareURL      string    `json:"shareUrl,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (d Draft) clone() Draft {
	out := d
	out.Vitals = make(map[string]string, len(d.Vitals))
	for k, v := range d.Vitals {
		out.Vitals[k] = v
	}
	out.DraftActions = append([]DraftAction(nil), d.DraftActions...)
	out.Items = append([]vetapi.MedicationItem(nil), d.Items...)
	return out
}
