package consultation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry holds live sessions. There is no persistence: a session exists
// only for the lifetime of one visit on one device.
type Registry interface {
	GetByID(id uuid.UUID) (*Session, error)
	Save(s *Session)
	Delete(id uuid.UUID)
}

type memoryRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() Registry {
	return &memoryRegistry{sessions: map[uuid.UUID]*Session{}}
}

func (r *memoryRegistry) GetByID(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("consultation session not found")
	}
	return s, nil
}

func (r *memoryRegistry) Save(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *memoryRegistry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
