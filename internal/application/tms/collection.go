package tms

import (
	"sort"
	"sync"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// Collection is the in-memory view of one entity type for a tenant.
// It stores private copies; callers always receive clones.
type Collection[T any, P shared.Record[T]] struct {
	mu         sync.RWMutex
	entityType string
	items      map[uuid.UUID]P
	index      *ReferenceIndex
	refs       func(P) []uuid.UUID
	order      func(a, b P) bool
}

// NewCollection creates a collection. refs lists the forward references of a
// record for the reverse index; nil means the type references nothing.
func NewCollection[T any, P shared.Record[T]](entityType string, index *ReferenceIndex, refs func(P) []uuid.UUID, order func(a, b P) bool) *Collection[T, P] {
	return &Collection[T, P]{
		entityType: entityType,
		items:      make(map[uuid.UUID]P),
		index:      index,
		refs:       refs,
		order:      order,
	}
}

// EntityType returns the name used in messages and audit entries
func (c *Collection[T, P]) EntityType() string {
	return c.entityType
}

// Get returns a copy of the record
func (c *Collection[T, P]) Get(id uuid.UUID) (P, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		var zero P
		return zero, false
	}
	return P(item.Clone()), true
}

// Has reports whether the record exists
func (c *Collection[T, P]) Has(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[id]
	return ok
}

// List returns copies of all records, sorted when an order is configured
func (c *Collection[T, P]) List() []P {
	c.mu.RLock()
	out := make([]P, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, P(item.Clone()))
	}
	c.mu.RUnlock()
	if c.order != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.order(out[i], out[j]) })
	}
	return out
}

// Filter returns copies of the records matching keep
func (c *Collection[T, P]) Filter(keep func(P) bool) []P {
	var out []P
	for _, item := range c.List() {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of records
func (c *Collection[T, P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Put inserts or replaces a record
func (c *Collection[T, P]) Put(item P) {
	cp := P(item.Clone())
	c.mu.Lock()
	c.items[cp.GetID()] = cp
	c.mu.Unlock()
	c.reindex(cp)
}

// Remove deletes a record
func (c *Collection[T, P]) Remove(id uuid.UUID) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
	if c.index != nil {
		c.index.Remove(Source{Type: c.entityType, ID: id})
	}
}

// Restore puts prior back, or removes the record when it did not exist
func (c *Collection[T, P]) Restore(id uuid.UUID, prior P, existed bool) {
	if existed {
		c.Put(prior)
		return
	}
	c.Remove(id)
}

// Replace swaps in an authoritative snapshot
func (c *Collection[T, P]) Replace(items []*T) {
	next := make(map[uuid.UUID]P, len(items))
	for _, raw := range items {
		if raw == nil {
			continue
		}
		item := P(raw)
		next[item.GetID()] = P(item.Clone())
	}

	c.mu.Lock()
	c.items = next
	c.mu.Unlock()

	if c.index == nil || c.refs == nil {
		return
	}
	c.index.RemoveType(c.entityType)
	for _, item := range next {
		c.reindex(item)
	}
}

func (c *Collection[T, P]) reindex(item P) {
	if c.index == nil || c.refs == nil {
		return
	}
	c.index.Set(Source{Type: c.entityType, ID: item.GetID()}, c.refs(item))
}
