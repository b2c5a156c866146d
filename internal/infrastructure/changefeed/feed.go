// Package changefeed tells tenant sessions that stored records changed.
// Notices carry no data; subscribers re-read the store on delivery.
package changefeed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is the kind of write that produced a notice
type Action string

const (
	ActionSaved   Action = "saved"
	ActionDeleted Action = "deleted"
)

// Notice announces a write to one record of a topic
type Notice struct {
	Topic     string    `json:"topic"`
	TenantID  uuid.UUID `json:"tenant_id"`
	EntityID  uuid.UUID `json:"entity_id"`
	Action    Action    `json:"action"`
	Timestamp int64     `json:"timestamp"`
}

// Feed publishes notices and fans them out to subscribers of the same
// topic and tenant.
type Feed interface {
	Publish(ctx context.Context, n Notice) error
	Subscribe(topic string, tenantID uuid.UUID, fn func(Notice)) (unsubscribe func())
}

type subscriptionKey struct {
	topic    string
	tenantID uuid.UUID
}

// LocalFeed delivers notices in-process and synchronously
type LocalFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[subscriptionKey]map[int]func(Notice)
	logger *zap.Logger
}

// NewLocalFeed creates an in-process feed
func NewLocalFeed(logger *zap.Logger) *LocalFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalFeed{
		subs:   make(map[subscriptionKey]map[int]func(Notice)),
		logger: logger,
	}
}

// Publish delivers the notice to every matching subscriber
func (f *LocalFeed) Publish(_ context.Context, n Notice) error {
	f.dispatch(n)
	return nil
}

// Subscribe registers fn for notices on topic within the tenant
func (f *LocalFeed) Subscribe(topic string, tenantID uuid.UUID, fn func(Notice)) func() {
	key := subscriptionKey{topic: topic, tenantID: tenantID}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[key] == nil {
		f.subs[key] = make(map[int]func(Notice))
	}
	f.subs[key][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[key], id)
			if len(f.subs[key]) == 0 {
				delete(f.subs, key)
			}
		})
	}
}

// SubscriberCount returns the number of subscribers for a topic and tenant
func (f *LocalFeed) SubscriberCount(topic string, tenantID uuid.UUID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[subscriptionKey{topic: topic, tenantID: tenantID}])
}

func (f *LocalFeed) dispatch(n Notice) {
	f.mu.RLock()
	handlers := make([]func(Notice), 0, len(f.subs[subscriptionKey{n.Topic, n.TenantID}]))
	for _, fn := range f.subs[subscriptionKey{n.Topic, n.TenantID}] {
		handlers = append(handlers, fn)
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		f.deliver(fn, n)
	}
}

func (f *LocalFeed) deliver(fn func(Notice), n Notice) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Panic in change feed subscriber",
				zap.String("topic", n.Topic),
				zap.Any("panic", r))
		}
	}()
	fn(n)
}

var _ Feed = (*LocalFeed)(nil)
