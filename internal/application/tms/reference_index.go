package tms

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Source identifies a record that holds forward references
type Source struct {
	Type string
	ID   uuid.UUID
}

// ReferenceIndex maps every referenced id to the records pointing at it.
// Collections keep it current on each put, remove and replace, so lookups
// never scan the full data set.
type ReferenceIndex struct {
	mu      sync.RWMutex
	forward map[Source][]uuid.UUID
	reverse map[uuid.UUID]map[Source]struct{}
}

// NewReferenceIndex creates an empty index
func NewReferenceIndex() *ReferenceIndex {
	return &ReferenceIndex{
		forward: make(map[Source][]uuid.UUID),
		reverse: make(map[uuid.UUID]map[Source]struct{}),
	}
}

// Set replaces the targets recorded for src
func (x *ReferenceIndex) Set(src Source, targets []uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.unlink(src)
	if len(targets) == 0 {
		return
	}
	kept := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		if t == uuid.Nil {
			continue
		}
		refs, ok := x.reverse[t]
		if !ok {
			refs = make(map[Source]struct{})
			x.reverse[t] = refs
		}
		if _, dup := refs[src]; dup {
			continue
		}
		refs[src] = struct{}{}
		kept = append(kept, t)
	}
	x.forward[src] = kept
}

// Remove forgets src
func (x *ReferenceIndex) Remove(src Source) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.unlink(src)
}

// RemoveType forgets every source of the given type
func (x *ReferenceIndex) RemoveType(sourceType string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for src := range x.forward {
		if src.Type == sourceType {
			x.unlink(src)
		}
	}
}

func (x *ReferenceIndex) unlink(src Source) {
	for _, t := range x.forward[src] {
		refs := x.reverse[t]
		delete(refs, src)
		if len(refs) == 0 {
			delete(x.reverse, t)
		}
	}
	delete(x.forward, src)
}

// Referrers returns the sources pointing at target, ordered by type then id
func (x *ReferenceIndex) Referrers(target uuid.UUID) []Source {
	x.mu.RLock()
	out := make([]Source, 0, len(x.reverse[target]))
	for src := range x.reverse[target] {
		out = append(out, src)
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ReferrersOfType returns the ids of sourceType records pointing at target
func (x *ReferenceIndex) ReferrersOfType(target uuid.UUID, sourceType string) []uuid.UUID {
	var ids []uuid.UUID
	for _, src := range x.Referrers(target) {
		if src.Type == sourceType {
			ids = append(ids, src.ID)
		}
	}
	return ids
}
