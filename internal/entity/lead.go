package entity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidStage      = errors.New("invalid stage")
	ErrNegativeDealValue = errors.New("deal value must not be negative")
	ErrDealValueTooLarge = errors.New("deal value exceeds 999,999,999,999.99")
	ErrInvalidLead       = errors.New("lead rejected by store constraint")
)

// Stage is one of the fixed pipeline states. The string value is the
// wire label used by the store, the import template and the API.
type Stage string

const (
	StageNew        Stage = "New"
	StageContacted  Stage = "Contacted"
	StageQualified  Stage = "Qualified"
	StageClosedWon  Stage = "Closed Won"
	StageClosedLost Stage = "Closed Lost"
)

// MaxDealValue is the largest amount the leads.deal_value NUMERIC(14,2) column holds.
const MaxDealValue = 999_999_999_999.99

func validDealValue(v float64) error {
	switch {
	case v < 0:
		return ErrNegativeDealValue
	case v > MaxDealValue:
		return ErrDealValueTooLarge
	}
	return nil
}

var stageOrder = []Stage{StageNew, StageContacted, StageQualified, StageClosedWon, StageClosedLost}

// Stages returns the pipeline stages in board order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// StageLabels returns the display labels in board order.
func StageLabels() []string {
	labels := make([]string, len(stageOrder))
	for i, s := range stageOrder {
		labels[i] = string(s)
	}
	return labels
}

// ParseStage matches a label exactly (case sensitive).
func ParseStage(label string) (Stage, bool) {
	for _, s := range stageOrder {
		if string(s) == label {
			return s, true
		}
	}
	return "", false
}

func (s Stage) Valid() bool {
	_, ok := ParseStage(string(s))
	return ok
}

// Closed reports whether the stage ends the pipeline.
func (s Stage) Closed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

func (s Stage) String() string {
	return string(s)
}

// Lead is the only persisted entity. Optional strings are nil when absent.
type Lead struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	DealValue float64   `json:"deal_value"`
	Stage     Stage     `json:"stage"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeadDraft is what callers hand to the store on insert. The store stamps
// id, created_at and updated_at.
type LeadDraft struct {
	OwnerID   string
	Name      string
	Email     *string
	Phone     *string
	DealValue float64
	Stage     Stage
	Notes     *string
}

// Normalize applies the insert defaults: blank optionals become absent and an
// unset stage becomes New.
func (d *LeadDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = OptionalString(derefTrim(d.Email))
	d.Phone = OptionalString(derefTrim(d.Phone))
	d.Notes = OptionalString(derefTrim(d.Notes))
	if d.Stage == "" {
		d.Stage = StageNew
	}
}

func (d *LeadDraft) Validate() error {
	if d.OwnerID == "" {
		return errors.New("owner is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if err := validDealValue(d.DealValue); err != nil {
		return err
	}
	if !d.Stage.Valid() {
		return ErrInvalidStage
	}
	return nil
}

// LeadPatch carries a partial update; nil fields are left untouched.
// ClearEmail/ClearPhone/ClearNotes set the column back to absent.
type LeadPatch struct {
	Name       *string
	Email      *string
	Phone      *string
	DealValue  *float64
	Stage      *Stage
	Notes      *string
	ClearEmail bool
	ClearPhone bool
	ClearNotes bool
}

// StagePatch builds the stage-only update issued by the board.
func StagePatch(s Stage) LeadPatch {
	return LeadPatch{Stage: &s}
}

func (p LeadPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.DealValue == nil &&
		p.Stage == nil && p.Notes == nil && !p.ClearEmail && !p.ClearPhone && !p.ClearNotes
}

func (p LeadPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.DealValue != nil {
		if err := validDealValue(*p.DealValue); err != nil {
			return err
		}
	}
	if p.Stage != nil && !p.Stage.Valid() {
		return ErrInvalidStage
	}
	return nil
}

// Apply mutates l in place. Used by the in-memory store and by optimistic
// board updates.
func (p LeadPatch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = strings.TrimSpace(*p.Name)
	}
	if p.ClearEmail {
		l.Email = nil
	} else if p.Email != nil {
		l.Email = OptionalString(*p.Email)
	}
	if p.ClearPhone {
		l.Phone = nil
	} else if p.Phone != nil {
		l.Phone = OptionalString(*p.Phone)
	}
	if p.ClearNotes {
		l.Notes = nil
	} else if p.Notes != nil {
		l.Notes = OptionalString(*p.Notes)
	}
	if p.DealValue != nil {
		l.DealValue = *p.DealValue
	}
	if p.Stage != nil {
		l.Stage = *p.Stage
	}
}

// LeadRepositoryInterface is the Record Store. Every call is scoped to an owner.
type LeadRepositoryInterface interface {
	FindByOwner(ctx context.Context, ownerID string) ([]*Lead, error)
	Create(ctx context.Context, draft LeadDraft) (*Lead, error)
	CreateMany(ctx context.Context, drafts []LeadDraft) (int, error)
	Update(ctx context.Context, ownerID, id string, patch LeadPatch) error
	Delete(ctx context.Context, ownerID, id string) error
}

// OptionalString returns nil for blank input.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences an optional string, "" when absent.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTrim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
