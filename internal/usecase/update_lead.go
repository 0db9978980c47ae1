package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type UpdateLeadUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
}

func NewUpdateLeadUseCase(repo LeadRepository, logger *zap.Logger) *UpdateLeadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateLeadUseCase{Repo: repo, Logger: logger}
}

// Execute saves the full form over the stored lead. Optional fields left blank
// are cleared.
func (uc *UpdateLeadUseCase) Execute(ctx context.Context, ownerID, leadID string, input LeadInput) error {
	if errs := ValidateLeadInput(input); len(errs) > 0 {
		return validationFailed(errs)
	}

	patch := input.toPatch()
	if err := patch.Validate(); err != nil {
		return &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	if err := uc.Repo.Update(ctx, ownerID, leadID, patch); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return leadNotFound()
		}
		uc.Logger.Error("lead update failed",
			zap.String("owner_id", ownerID),
			zap.String("lead_id", leadID),
			zap.Error(err))
		return storeErr("update", err)
	}
	return nil
}

func leadNotFound() error {
	return &DomainError{Code: CodeNotFound, Message: "lead not found"}
}
