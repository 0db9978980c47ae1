package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type ListLeadsUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
}

func NewListLeadsUseCase(repo LeadRepository, logger *zap.Logger) *ListLeadsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListLeadsUseCase{Repo: repo, Logger: logger}
}

// Execute returns the owner's leads newest-created first. Never nil.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	leads, err := uc.Repo.FindByOwner(ctx, ownerID)
	if err != nil {
		uc.Logger.Error("lead query failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, storeErr("query", err)
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	return leads, nil
}
