package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryStore is an in-process shared.EntityStore. Subscribers are notified
// synchronously after each write, outside the store lock.
type MemoryStore[T any, P shared.Record[T]] struct {
	mu         sync.RWMutex
	entityType string
	items      map[uuid.UUID]map[uuid.UUID]P
	subs       map[uuid.UUID]map[int]func([]*T)
	nextSub    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore[T any, P shared.Record[T]](entityType string) *MemoryStore[T, P] {
	return &MemoryStore[T, P]{
		entityType: entityType,
		items:      make(map[uuid.UUID]map[uuid.UUID]P),
		subs:       make(map[uuid.UUID]map[int]func([]*T)),
	}
}

// Get returns a copy of the record
func (s *MemoryStore[T, P]) Get(_ context.Context, tenantID, id uuid.UUID) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[tenantID][id]
	if !ok {
		return nil, shared.NewNotFoundError(s.entityType, id)
	}
	return item.Clone(), nil
}

// List returns copies of the tenant's records ordered by ID
func (s *MemoryStore[T, P]) List(_ context.Context, tenantID uuid.UUID) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(tenantID), nil
}

// Save stores a copy of the record
func (s *MemoryStore[T, P]) Save(_ context.Context, entity *T) error {
	p := P(entity)
	tenantID := p.GetTenantID()

	s.mu.Lock()
	if s.items[tenantID] == nil {
		s.items[tenantID] = make(map[uuid.UUID]P)
	}
	s.items[tenantID][p.GetID()] = P(p.Clone())
	s.mu.Unlock()

	s.notify(tenantID)
	return nil
}

// Delete removes the record; a missing record is not an error
func (s *MemoryStore[T, P]) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	_, existed := s.items[tenantID][id]
	delete(s.items[tenantID], id)
	s.mu.Unlock()

	if existed {
		s.notify(tenantID)
	}
	return nil
}

// Subscribe registers onChange for the tenant's writes
func (s *MemoryStore[T, P]) Subscribe(_ context.Context, tenantID uuid.UUID, onChange func([]*T), _ func(error)) (func(), error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[tenantID] == nil {
		s.subs[tenantID] = make(map[int]func([]*T))
	}
	s.subs[tenantID][id] = onChange
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[tenantID], id)
		})
	}, nil
}

// Len returns the number of records held for the tenant
func (s *MemoryStore[T, P]) Len(tenantID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[tenantID])
}

func (s *MemoryStore[T, P]) snapshot(tenantID uuid.UUID) []*T {
	items := s.items[tenantID]
	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	out := make([]*T, len(ids))
	for i, id := range ids {
		out[i] = items[id].Clone()
	}
	return out
}

func (s *MemoryStore[T, P]) notify(tenantID uuid.UUID) {
	s.mu.RLock()
	handlers := make([]func([]*T), 0, len(s.subs[tenantID]))
	for _, fn := range s.subs[tenantID] {
		handlers = append(handlers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range handlers {
		s.mu.RLock()
		items := s.snapshot(tenantID)
		s.mu.RUnlock()
		fn(items)
	}
}
