package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type ImportLeadsUseCase struct {
	Repo   LeadRepository
	Events EventPublisher
	Logger *zap.Logger
	Now    Clock
}

func NewImportLeadsUseCase(repo LeadRepository, events EventPublisher, logger *zap.Logger) *ImportLeadsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportLeadsUseCase{Repo: repo, Events: events, Logger: logger}
}

// Execute inserts the valid rows as one batch owned by ownerID. The batch is
// all-or-nothing: on a store failure nothing counts as inserted.
func (uc *ImportLeadsUseCase) Execute(ctx context.Context, ownerID string, rows []ParsedRow) (ImportResult, error) {
	drafts := make([]entity.LeadDraft, 0, len(rows))
	for _, r := range rows {
		if r.IsValid {
			drafts = append(drafts, r.draft(ownerID))
		}
	}
	result := ImportResult{Rejected: len(rows) - len(drafts)}

	if len(drafts) == 0 {
		return result, &DomainError{Code: CodeNothingToImport, Message: "no valid leads to import"}
	}

	n, err := uc.Repo.CreateMany(ctx, drafts)
	if err != nil {
		uc.Logger.Error("lead import failed",
			zap.String("owner_id", ownerID),
			zap.Int("rows", len(drafts)),
			zap.Error(err))
		return result, storeErr("insert_many", err)
	}
	if n != len(drafts) {
		uc.Logger.Warn("store reported a different insert count",
			zap.Int("expected", len(drafts)), zap.Int("reported", n))
	}

	result.Inserted = len(drafts)
	uc.Logger.Info("leads imported",
		zap.String("owner_id", ownerID),
		zap.Int("inserted", result.Inserted),
		zap.Int("rejected", result.Rejected))

	uc.publish(ctx, queue.NewImportedEvent(ownerID, result.Inserted, result.Rejected, uc.Now.now()))
	return result, nil
}

func (uc *ImportLeadsUseCase) publish(ctx context.Context, ev queue.LeadEvent) {
	if uc.Events == nil {
		return
	}
	if err := uc.Events.PublishLeadEvent(ctx, ev); err != nil {
		uc.Logger.Warn("leads stored but event publish failed",
			zap.String("event", ev.Type), zap.Error(err))
	}
}
