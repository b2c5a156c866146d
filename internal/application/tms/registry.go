package tms

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry owns one session per tenant, opened on first use
type Registry struct {
	deps     Dependencies
	logger   *zap.Logger
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	opening  map[uuid.UUID]chan struct{}
}

// NewRegistry creates an empty registry
func NewRegistry(deps Dependencies) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		deps:     deps,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
		opening:  make(map[uuid.UUID]chan struct{}),
	}
}

// Session returns the tenant's session, opening it when needed. Concurrent
// callers for the same tenant share one open.
func (r *Registry) Session(ctx context.Context, tenantID uuid.UUID) (*Session, error) {
	for {
		r.mu.Lock()
		if s, ok := r.sessions[tenantID]; ok {
			r.mu.Unlock()
			return s, nil
		}
		if wait, ok := r.opening[tenantID]; ok {
			r.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		r.opening[tenantID] = done
		r.mu.Unlock()

		s := NewSession(tenantID, r.deps)
		err := s.Open(ctx)

		r.mu.Lock()
		delete(r.opening, tenantID)
		if err == nil {
			r.sessions[tenantID] = s
		}
		r.mu.Unlock()
		close(done)

		if err != nil {
			r.logger.Error("Failed to open tenant session",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			return nil, err
		}
		return s, nil
	}
}

// Sessions returns the currently open sessions
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Evict closes and forgets the tenant's session
func (r *Registry) Evict(tenantID uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	delete(r.sessions, tenantID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close closes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
