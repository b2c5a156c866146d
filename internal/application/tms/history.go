package tms

import (
	"context"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditTrail returns the tenant's audit entries matching the filter
func (s *Session) AuditTrail(ctx context.Context, f audit.Filter) ([]*audit.Entry, error) {
	if s.deps.Audit == nil {
		return nil, nil
	}
	entries, err := s.deps.Audit.List(ctx, s.tenantID, f)
	if err != nil {
		return nil, shared.NewIOFailure("read audit trail", err)
	}
	return entries, nil
}

// LoadAdjustments returns the justified edits made to a locked load, oldest first
func (s *Session) LoadAdjustments(id uuid.UUID) ([]freight.AdjustmentEntry, error) {
	l, err := s.GetLoad(id)
	if err != nil {
		return nil, err
	}
	return append([]freight.AdjustmentEntry(nil), l.Adjustments...), nil
}
