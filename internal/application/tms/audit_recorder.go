package tms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRecorder writes audit entries without ever failing the caller.
// A broken sink costs a warning log, never the mutation.
type AuditRecorder struct {
	sink   audit.Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditRecorder creates a recorder; a nil sink discards entries
func NewAuditRecorder(sink audit.Sink, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{sink: sink, logger: logger, now: time.Now}
}

// Record appends the entry, filling in the id and timestamp
func (r *AuditRecorder) Record(ctx context.Context, e *audit.Entry) {
	if r == nil || r.sink == nil || e == nil {
		return
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Audit sink panicked",
				zap.String("entity_type", e.EntityType),
				zap.Any("panic", rec),
			)
		}
	}()
	if err := r.sink.Append(ctx, e); err != nil {
		r.logger.Warn("Failed to write audit entry",
			zap.String("action", string(e.Action)),
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID.String()),
			zap.Error(err),
		)
	}
}

// Created records the creation of an entity
func (r *AuditRecorder) Created(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, entityType string, id uuid.UUID, after any, message string) {
	r.Record(ctx, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     audit.ActionCreate,
		EntityType: entityType,
		EntityID:   id,
		After:      payloadOf(after),
		Message:    message,
	})
}

// Updated records a field-level change
func (r *AuditRecorder) Updated(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, entityType string, id uuid.UUID, before, after audit.Payload, message string) {
	r.Record(ctx, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     audit.ActionUpdate,
		EntityType: entityType,
		EntityID:   id,
		Before:     before,
		After:      after,
		Message:    message,
	})
}

// StatusChanged records a lifecycle transition
func (r *AuditRecorder) StatusChanged(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, entityType string, id uuid.UUID, from, to string, message string) {
	r.Record(ctx, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     audit.ActionStatusChange,
		EntityType: entityType,
		EntityID:   id,
		Before:     audit.Payload{"status": from},
		After:      audit.Payload{"status": to},
		Message:    message,
	})
}

// Deleted records the removal of an entity
func (r *AuditRecorder) Deleted(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, entityType string, id uuid.UUID, before any, metadata audit.Payload, message string) {
	r.Record(ctx, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     audit.ActionDelete,
		EntityType: entityType,
		EntityID:   id,
		Before:     payloadOf(before),
		Metadata:   metadata,
		Message:    message,
	})
}

// payloadOf flattens a value into a JSON object payload
func payloadOf(v any) audit.Payload {
	if v == nil {
		return nil
	}
	if p, ok := v.(audit.Payload); ok {
		return p
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return audit.Payload{"error": err.Error()}
	}
	var p audit.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return audit.Payload{"value": string(raw)}
	}
	return p
}
