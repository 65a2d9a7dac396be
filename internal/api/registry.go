package api

import (
	"context"
	"sync"

	"github.com/abhisek/kotowari/internal/session"
)

// Registry holds one Coach per user. Calls for the same user are
// serialised; different users proceed in parallel.
type Registry struct {
	deps session.Deps

	mu    sync.Mutex
	users map[string]*userSlot
}

type userSlot struct {
	mu    sync.Mutex
	coach *session.Coach
}

// NewRegistry creates a Registry that builds coaches from deps.
func NewRegistry(deps session.Deps) *Registry {
	return &Registry{deps: deps, users: make(map[string]*userSlot)}
}

// With runs fn with userID's coach while holding that user's lock. The
// coach is created and its progress loaded on first use.
func (r *Registry) With(ctx context.Context, userID string, fn func(*session.Coach) error) error {
	slot := r.slot(userID)

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.coach == nil {
		slot.coach = session.NewCoach(ctx, r.deps, userID)
	}
	return fn(slot.coach)
}

// Len returns the number of users with a loaded coach.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *Registry) slot(userID string) *userSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[userID]
	if !ok {
		s = &userSlot{}
		r.users[userID] = s
	}
	return s
}
