package usecase

import (
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

// LeadInput is the lead form as submitted by a client.
type LeadInput struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Email     string   `json:"email" validate:"omitempty,email"`
	Phone     string   `json:"phone" validate:"omitempty,max=50"`
	DealValue *float64 `json:"deal_value" validate:"omitempty,gte=0,lte=999999999999.99"`
	Stage     string   `json:"stage" validate:"omitempty,stage"`
	Notes     string   `json:"notes" validate:"omitempty,max=5000"`
}

func (in LeadInput) trimmed() LeadInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Stage = strings.TrimSpace(in.Stage)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

func (in LeadInput) dealValue() float64 {
	if in.DealValue == nil {
		return 0
	}
	return *in.DealValue
}

func (in LeadInput) stage() entity.Stage {
	if s, ok := entity.ParseStage(strings.TrimSpace(in.Stage)); ok {
		return s
	}
	return entity.StageNew
}

// toDraft assumes the input already passed ValidateLeadInput.
func (in LeadInput) toDraft(ownerID string) entity.LeadDraft {
	in = in.trimmed()
	return entity.LeadDraft{
		OwnerID:   ownerID,
		Name:      in.Name,
		Email:     entity.OptionalString(in.Email),
		Phone:     entity.OptionalString(in.Phone),
		DealValue: in.dealValue(),
		Stage:     in.stage(),
		Notes:     entity.OptionalString(in.Notes),
	}
}

// toPatch mirrors a full form save: blank optionals clear the stored value.
func (in LeadInput) toPatch() entity.LeadPatch {
	in = in.trimmed()
	value := in.dealValue()
	stage := in.stage()
	p := entity.LeadPatch{
		Name:      &in.Name,
		DealValue: &value,
		Stage:     &stage,
	}
	if in.Email == "" {
		p.ClearEmail = true
	} else {
		p.Email = &in.Email
	}
	if in.Phone == "" {
		p.ClearPhone = true
	} else {
		p.Phone = &in.Phone
	}
	if in.Notes == "" {
		p.ClearNotes = true
	} else {
		p.Notes = &in.Notes
	}
	return p
}

type ImportResult struct {
	Inserted int `json:"inserted"`
	Rejected int `json:"rejected"`
}

type StageStat struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type FunnelStage struct {
	Stage      entity.Stage `json:"stage"`
	Count      int          `json:"count"`
	Value      float64      `json:"value"`
	Percentage int          `json:"percentage"`
	StuckLeads int          `json:"stuck_leads"`
}

type StuckLead struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Stage     entity.Stage `json:"stage"`
	DaysStuck int          `json:"days_stuck"`
	Value     float64      `json:"value"`
}

type DashboardStats struct {
	TotalLeads          int                        `json:"total_leads"`
	TotalValue          float64                    `json:"total_value"`
	StageStats          map[entity.Stage]StageStat `json:"stage_stats"`
	ConversionRate      int                        `json:"conversion_rate"`
	AvgDealSize         int64                      `json:"avg_deal_size"`
	PipelineVelocity    int                        `json:"pipeline_velocity"`
	StuckLeadsCount     int                        `json:"stuck_leads_count"`
	Funnel              []FunnelStage              `json:"funnel"`
	StuckLeads          []StuckLead                `json:"stuck_leads"`
	HighValueStuck      []StuckLead                `json:"high_value_stuck"`
	HighValueStuckValue float64                    `json:"high_value_stuck_value"`
	RevenueForecast     int64                      `json:"revenue_forecast"`
}

type BoardColumn struct {
	Stage entity.Stage   `json:"stage"`
	Count int            `json:"count"`
	Value float64        `json:"value"`
	Leads []*entity.Lead `json:"leads"`
}

type LeadOutput struct {
	Lead *entity.Lead `json:"lead"`
}
