package engine

import (
	"errors"
	"sync"
)

var (
	// ErrSessionExists means a submission for the job is already running.
	ErrSessionExists = errors.New("engine: session already exists for job")
	// ErrNoSession means no live session is registered for the job.
	ErrNoSession = errors.New("engine: no session for job")
)

// Registry tracks live sessions by job ID. Exactly one session may exist
// per job at a time.
type Registry interface {
	Put(s *Session) error
	Get(jobID string) (*Session, bool)
	Delete(jobID string)
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]*Session)}
}

func (r *MemoryRegistry) Put(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.JobID]; ok {
		return ErrSessionExists
	}
	r.sessions[s.JobID] = s
	return nil
}

func (r *MemoryRegistry) Get(jobID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[jobID]
	return s, ok
}

func (r *MemoryRegistry) Delete(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, jobID)
}
