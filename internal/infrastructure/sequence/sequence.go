// Package sequence hands out per-tenant document numbers
package sequence

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// Memory is a process-local generator
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an in-process generator starting at 1
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

// Next returns the next number for the tenant and sequence name
func (m *Memory) Next(_ context.Context, tenantID uuid.UUID, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("sequence name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tenantID.String() + ":" + name
	m.counters[key]++
	return m.counters[key], nil
}

var _ shared.SequenceGenerator = (*Memory)(nil)
