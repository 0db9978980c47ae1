package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type sampleLead struct {
	name, email, phone string
	value              float64
	stage              entity.Stage
	notes              string
}

var sampleLeads = []sampleLead{
	{"Sarah Johnson", "sarah.johnson@techcorp.com", "+1-555-0123", 12000, entity.StageNew,
		"Interested in enterprise solution. Follow up next week about pricing."},
	{"Michael Chen", "mchen@startup.io", "+1-555-0124", 8500, entity.StageContacted,
		"Had initial call. Needs to discuss with team before moving forward."},
	{"Emily Rodriguez", "emily.r@business.com", "+1-555-0125", 15000, entity.StageQualified,
		"Budget approved. Waiting for technical requirements document."},
	{"David Thompson", "dthompson@company.com", "+1-555-0126", 6500, entity.StageNew,
		"Referral from existing client. High potential for upsell."},
	{"Lisa Park", "lisa.park@enterprise.com", "+1-555-0127", 22000, entity.StageContacted,
		"Large enterprise deal. Multiple stakeholders involved."},
}

// SampleDrafts returns the demo leads for ownerID.
func SampleDrafts(ownerID string) []entity.LeadDraft {
	out := make([]entity.LeadDraft, len(sampleLeads))
	for i, s := range sampleLeads {
		out[i] = entity.LeadDraft{
			OwnerID:   ownerID,
			Name:      s.name,
			Email:     entity.OptionalString(s.email),
			Phone:     entity.OptionalString(s.phone),
			DealValue: s.value,
			Stage:     s.stage,
			Notes:     entity.OptionalString(s.notes),
		}
	}
	return out
}

type SeedSamplesUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
}

func NewSeedSamplesUseCase(repo LeadRepository, logger *zap.Logger) *SeedSamplesUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedSamplesUseCase{Repo: repo, Logger: logger}
}

// Execute inserts the sample set as one batch and returns how many were added.
func (uc *SeedSamplesUseCase) Execute(ctx context.Context, ownerID string) (int, error) {
	drafts := SampleDrafts(ownerID)
	if _, err := uc.Repo.CreateMany(ctx, drafts); err != nil {
		uc.Logger.Error("sample seed failed", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, storeErr("insert_many", err)
	}
	uc.Logger.Info("sample leads added", zap.String("owner_id", ownerID), zap.Int("count", len(drafts)))
	return len(drafts), nil
}
