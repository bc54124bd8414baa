package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures usage record retention.
type RetentionConfig struct {
	// RetentionDays is how many days of records to keep. Zero disables
	// pruning entirely.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduled pruning
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string
}

// Pruner deletes usage records older than the retention window.
type Pruner struct {
	storage Storage
	config  RetentionConfig
	logger  *slog.Logger
}

// NewPruner creates a retention pruner.
func NewPruner(storage Storage, config RetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "usage.pruner"),
	}
}

// Prune deletes records older than the retention window and returns how
// many were removed. A zero retention window makes Prune a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.storage.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned usage records",
			"deleted_count", deleted,
			"cutoff", cutoff,
			"retention_days", p.config.RetentionDays,
		)
	}
	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a retention scheduler for the pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "usage.scheduler"),
	}
}

// Start begins scheduled pruning. If no schedule is configured the
// scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.pruner.Prune(ctx); err != nil {
			s.logger.Error("scheduled pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}
