package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khansari2403/Auto-Application-sub000/internal/attach"
	"github.com/khansari2403/Auto-Application-sub000/internal/auth"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/resolver"
	"github.com/khansari2403/Auto-Application-sub000/internal/verify"
)

// PageHandle is the per-session browser surface the engine drives.
type PageHandle interface {
	URL() string
	Text(ctx context.Context) (string, error)
	Discover(ctx context.Context) ([]domain.DiscoveredField, error)
	Typer() resolver.Typer
	FileSetter() attach.FileSetter
	Submitter() verify.Submitter
	ClearAuth(ctx context.Context, kind auth.Roadblock, profile *domain.Profile) error
}

// Driver opens and releases browser pages keyed by job.
type Driver interface {
	Open(ctx context.Context, jobID, url string) (PageHandle, error)
	Release(jobID string)
}

// Session is one in-flight submission. It holds the live page handle,
// the discovered fields and any questions waiting for a human answer.
type Session struct {
	ID        string
	JobID     string
	UserID    string
	CreatedAt time.Time

	mu        sync.Mutex
	phase     domain.Phase
	step      string
	fields    []domain.DiscoveredField
	pending   []domain.PendingQuestion
	page      PageHandle
	profile   *domain.Profile
	release   *time.Timer
	updatedAt time.Time
}

func newSession(jobID, userID string, profile *domain.Profile) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		JobID:     jobID,
		UserID:    userID,
		CreatedAt: now,
		phase:     domain.PhaseStarted,
		profile:   profile,
		updatedAt: now,
	}
}

// Phase returns the current state machine position.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Pending returns a copy of the questions waiting for answers.
func (s *Session) Pending() []domain.PendingQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PendingQuestion, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *Session) setPhase(p domain.Phase) {
	s.mu.Lock()
	s.phase = p
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) setStep(step string) {
	s.mu.Lock()
	s.step = step
	s.updatedAt = time.Now()
	s.mu.Unlock()
}
