package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry holds the live pricing sessions in memory. Sessions are never
// persisted; they end explicitly or are swept after idling.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     Deps
	idleTTL  time.Duration
	newID    func() string
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps.withDefaults(),
		idleTTL:  idleTTL,
		newID:    uuid.NewString,
	}
}

// Create opens a session for order, which may be nil.
func (r *Registry) Create(ctx context.Context, order *Order) (*Session, error) {
	s, err := NewSession(ctx, r.newID(), order, r.deps)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.deps.Observer.SetActiveSessions(n)
	r.deps.Logger.Info("pricing session opened",
		zap.String("session", s.ID()), zap.Stringer("step", s.Step()))
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// End closes a session and cancels its tasks.
func (r *Registry) End(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	r.deps.Observer.SetActiveSessions(n)
	r.deps.Logger.Info("pricing session ended", zap.String("session", id))
	return nil
}

// Sweep ends sessions idle for longer than the TTL and returns how many.
// A zero TTL disables sweeping.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > r.idleTTL {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
		r.deps.Logger.Info("idle pricing session swept", zap.String("session", s.ID()))
	}
	if len(stale) > 0 {
		r.deps.Observer.SetActiveSessions(n)
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
