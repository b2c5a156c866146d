package shared

import (
	"context"

	"github.com/google/uuid"
)

// Record constrains the pointer type of a tenant-scoped entity that can be
// held in memory and persisted through an EntityStore.
type Record[T any] interface {
	*T
	GetID() uuid.UUID
	GetTenantID() uuid.UUID
	Clone() *T
}

// EntityStore is the persistence port for one entity type.
//
// Subscribe delivers the full tenant-scoped list whenever the underlying data
// changes. Every delivery is authoritative and replaces the subscriber's view.
type EntityStore[T any] interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Subscribe(ctx context.Context, tenantID uuid.UUID, onChange func([]*T), onError func(error)) (unsubscribe func(), err error)
}

// SequenceGenerator hands out strictly increasing numbers per tenant and
// sequence name. Implementations must be atomic across processes.
type SequenceGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error)
}
