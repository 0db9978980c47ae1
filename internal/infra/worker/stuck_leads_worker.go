package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

// OwnerLister is the store call the scanner needs besides FindByOwner.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

type leadSource interface {
	OwnerLister
	FindByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error)
}

// StuckLeadsWorker periodically looks for leads that have sat in Contacted or
// Qualified for more than a week and publishes one digest event per owner.
type StuckLeadsWorker struct {
	repo         leadSource
	events       usecase.EventPublisher
	logger       *zap.Logger
	tickInterval time.Duration
	now          func() time.Time
}

func NewStuckLeadsWorker(repo leadSource, events usecase.EventPublisher, interval time.Duration, logger *zap.Logger) *StuckLeadsWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StuckLeadsWorker{
		repo:         repo,
		events:       events,
		logger:       logger,
		tickInterval: interval,
		now:          time.Now,
	}
}

// Start scans once immediately, then on every tick until ctx is done.
func (w *StuckLeadsWorker) Start(ctx context.Context) {
	w.logger.Info("stuck lead scanner started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stuck lead scanner stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan returns how many digests were published.
func (w *StuckLeadsWorker) scan(ctx context.Context) int {
	owners, err := w.repo.ListOwners(ctx)
	if err != nil {
		w.logger.Error("stuck scan: listing owners failed", zap.Error(err))
		return 0
	}

	now := w.now()
	published := 0
	for _, owner := range owners {
		if ctx.Err() != nil {
			return published
		}
		leads, err := w.repo.FindByOwner(ctx, owner)
		if err != nil {
			w.logger.Warn("stuck scan: fetch failed, skipping owner",
				zap.String("owner_id", owner), zap.Error(err))
			continue
		}

		stats := usecase.ComputeDashboard(leads, now)
		if len(stats.StuckLeads) == 0 {
			continue
		}

		payload := make([]queue.StuckLeadPayload, len(stats.StuckLeads))
		for i, s := range stats.StuckLeads {
			payload[i] = queue.StuckLeadPayload{
				ID:        s.ID,
				Name:      s.Name,
				Stage:     s.Stage.String(),
				DaysStuck: s.DaysStuck,
				Value:     s.Value,
			}
		}

		if err := w.events.PublishLeadEvent(ctx, queue.NewStuckEvent(owner, payload, now)); err != nil {
			w.logger.Warn("stuck scan: publish failed",
				zap.String("owner_id", owner), zap.Error(err))
			continue
		}
		published++
	}

	w.logger.Info("stuck scan finished",
		zap.Int("owners", len(owners)), zap.Int("digests", published))
	return published
}
