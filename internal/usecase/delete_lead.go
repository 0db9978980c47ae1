package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type DeleteLeadUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
}

func NewDeleteLeadUseCase(repo LeadRepository, logger *zap.Logger) *DeleteLeadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeleteLeadUseCase{Repo: repo, Logger: logger}
}

func (uc *DeleteLeadUseCase) Execute(ctx context.Context, ownerID, leadID string) error {
	if err := uc.Repo.Delete(ctx, ownerID, leadID); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return leadNotFound()
		}
		uc.Logger.Error("lead delete failed",
			zap.String("owner_id", ownerID),
			zap.String("lead_id", leadID),
			zap.Error(err))
		return storeErr("delete", err)
	}

	uc.Logger.Info("lead deleted", zap.String("owner_id", ownerID), zap.String("lead_id", leadID))
	return nil
}
