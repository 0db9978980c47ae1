package usecase

import (
	"context"

	"go.uber.org/zap"
)

type CreateLeadUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
}

func NewCreateLeadUseCase(repo LeadRepository, logger *zap.Logger) *CreateLeadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateLeadUseCase{Repo: repo, Logger: logger}
}

// Execute validates the form and inserts one lead for ownerID. Blank optional
// fields are stored as absent; stage defaults to New and deal value to 0.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, ownerID string, input LeadInput) (*LeadOutput, error) {
	if errs := ValidateLeadInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	draft := input.toDraft(ownerID)
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	lead, err := uc.Repo.Create(ctx, draft)
	if err != nil {
		uc.Logger.Error("lead insert failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, storeErr("insert", err)
	}

	uc.Logger.Info("lead created",
		zap.String("owner_id", ownerID),
		zap.String("lead_id", lead.ID))

	return &LeadOutput{Lead: lead}, nil
}
