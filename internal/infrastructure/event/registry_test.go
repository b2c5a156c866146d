package event

import (
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(typed, freight.EventTypeLoadCreated, finance.EventTypeInvoiceCreated)
	registry.Register(typed, freight.EventTypeLoadCreated)
	registry.Register(wildcard)

	handlers := registry.GetHandlers(freight.EventTypeLoadCreated)
	assert.Len(t, handlers, 2, "duplicate registration is ignored")
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	handlers = registry.GetHandlers(finance.EventTypeSettlementCreated)
	assert.Len(t, handlers, 1)
	assert.Same(t, wildcard, handlers[0])

	assert.Len(t, registry.GetAllHandlers(), 2)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	h1 := newRecordingHandler()
	h2 := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(h1, freight.EventTypeLoadDelivered)
	registry.Register(h2, freight.EventTypeLoadDelivered)
	registry.Register(wildcard)

	registry.Unregister(h1)
	registry.Unregister(wildcard)

	handlers := registry.GetHandlers(freight.EventTypeLoadDelivered)
	assert.Len(t, handlers, 1)
	assert.Same(t, h2, handlers[0])

	registry.Unregister(h2)
	assert.Empty(t, registry.GetHandlers(freight.EventTypeLoadDelivered))
	assert.Empty(t, registry.GetAllHandlers())
}
