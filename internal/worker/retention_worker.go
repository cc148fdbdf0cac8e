package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// RetentionWorker prunes audit entries past each organization's retention
// window. Organizations without an explicit window use the configured
// default.
type RetentionWorker struct {
	orgs        repository.OrganizationRepository
	audits      repository.AuditRepository
	defaultDays int
	interval    time.Duration
	logger      *zap.Logger
}

// NewRetentionWorker builds the worker. A non-positive interval disables it.
func NewRetentionWorker(
	orgs repository.OrganizationRepository,
	audits repository.AuditRepository,
	defaultDays int,
	interval time.Duration,
	logger *zap.Logger,
) *RetentionWorker {
	return &RetentionWorker{
		orgs:        orgs,
		audits:      audits,
		defaultDays: defaultDays,
		interval:    interval,
		logger:      logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	if w == nil || w.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Sweep(ctx)
			}
		}
	}()
}

// Sweep deletes expired audit entries for every organization. Failures are
// logged and skipped; the next tick retries.
func (w *RetentionWorker) Sweep(ctx context.Context) {
	orgs, err := w.orgs.List(ctx)
	if err != nil {
		w.logger.Warn("retention sweep: list organizations", zap.Error(err))
		return
	}
	for _, org := range orgs {
		days := org.AuditRetentionDays
		if days <= 0 {
			days = w.defaultDays
		}
		if days <= 0 {
			continue
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := w.audits.DeleteOlderThan(ctx, org.ID, cutoff)
		if err != nil {
			w.logger.Warn("retention sweep failed",
				zap.String("organization_id", org.ID),
				zap.Error(err))
			continue
		}
		if removed > 0 {
			w.logger.Info("audit entries pruned",
				zap.String("organization_id", org.ID),
				zap.Int("removed", removed),
				zap.Int("retention_days", days))
		}
	}
}
