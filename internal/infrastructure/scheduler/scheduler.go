package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned by NewScheduler for an unusable configuration
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// SessionSource lists the tenant sessions currently open
type SessionSource interface {
	Sessions() []*tms.Session
}

// RunStatus represents the outcome of a sweep over one tenant
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// SweepResult records one tenant's overdue sweep
type SweepResult struct {
	TenantID  uuid.UUID
	Flagged   int
	Status    RunStatus
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Scheduler periodically marks pending invoices past their due date as
// overdue in every open tenant session
type Scheduler struct {
	config  config.SchedulerConfig
	source  SessionSource
	logger  *zap.Logger
	nowFunc func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   []SweepResult
}

// DefaultConfig returns the default sweep configuration
func DefaultConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:              true,
		OverdueSweepInterval: 24 * time.Hour,
		JobTimeout:           time.Minute,
	}
}

// NewScheduler creates a scheduler over source
func NewScheduler(cfg config.SchedulerConfig, source SessionSource, logger *zap.Logger) (*Scheduler, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: session source is required", ErrInvalidConfig)
	}
	if cfg.OverdueSweepInterval <= 0 {
		return nil, fmt.Errorf("%w: overdue sweep interval must be positive", ErrInvalidConfig)
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:  cfg,
		source:  source,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Start starts the sweep loop. A disabled scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Overdue sweep scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Duration("interval", s.config.OverdueSweepInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops the loop and waits for an in-progress sweep or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns the results of the most recent sweep
func (s *Scheduler) LastRun() []SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SweepResult, len(s.lastRun))
	copy(out, s.lastRun)
	return out
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.OverdueSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps every open session and waits for each sweep to persist
func (s *Scheduler) RunOnce(ctx context.Context) []SweepResult {
	sessions := s.source.Sessions()
	results := make([]SweepResult, 0, len(sessions))
	for _, session := range sessions {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.sweep(ctx, session))
	}

	s.mu.Lock()
	s.lastRun = results
	s.mu.Unlock()

	total := 0
	for _, r := range results {
		total += r.Flagged
	}
	s.logger.Info("Overdue sweep finished",
		zap.Int("sessions", len(results)),
		zap.Int("flagged", total),
	)
	return results
}

func (s *Scheduler) sweep(ctx context.Context, session *tms.Session) SweepResult {
	result := SweepResult{TenantID: session.TenantID(), StartedAt: s.nowFunc()}
	logger := s.logger.With(zap.String("tenant_id", result.TenantID.String()))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	n, pending := session.SweepOverdueInvoices(jobCtx)
	result.Flagged = n
	err := pending.Wait(jobCtx)
	result.Duration = s.nowFunc().Sub(result.StartedAt)
	if err != nil {
		result.Status = RunStatusFailed
		result.Error = err.Error()
		logger.Error("Overdue sweep failed", zap.Int("flagged", n), zap.Error(err))
		return result
	}

	result.Status = RunStatusSuccess
	if n > 0 {
		logger.Info("Invoices marked overdue", zap.Int("flagged", n))
	}
	return result
}
