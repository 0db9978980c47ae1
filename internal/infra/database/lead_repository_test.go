package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

func strPtr(s string) *string { return &s }

func TestBuildLeadUpdate(t *testing.T) {
	stage := entity.StageQualified
	value := 1500.0

	tests := []struct {
		name      string
		patch     entity.LeadPatch
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "stage only",
			patch:     entity.StagePatch(entity.StageClosedWon),
			wantQuery: `UPDATE leads SET stage = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
			wantArgs:  []any{"Closed Won", "lead-1", "owner-1"},
		},
		{
			name:      "empty patch still touches updated_at",
			patch:     entity.LeadPatch{},
			wantQuery: `UPDATE leads SET updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			wantArgs:  []any{"lead-1", "owner-1"},
		},
		{
			name: "full form with clears",
			patch: entity.LeadPatch{
				Name:       strPtr("  Ann  "),
				ClearEmail: true,
				Phone:      strPtr(" 555 "),
				ClearNotes: true,
				DealValue:  &value,
				Stage:      &stage,
			},
			wantQuery: `UPDATE leads SET name = $1, email = $2, phone = $3, notes = $4, deal_value = $5, stage = $6, ` +
				`updated_at = NOW() WHERE id = $7 AND user_id = $8`,
			wantArgs: []any{"Ann", nil, strPtr("555"), nil, 1500.0, "Qualified", "lead-1", "owner-1"},
		},
		{
			name:      "clear wins over a value",
			patch:     entity.LeadPatch{Email: strPtr("a@b.c"), ClearEmail: true},
			wantQuery: `UPDATE leads SET email = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
			wantArgs:  []any{nil, "lead-1", "owner-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildLeadUpdate("owner-1", "lead-1", tt.patch)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMapPgError(t *testing.T) {
	badUUID := &pgconn.PgError{Code: pgInvalidTextRepresentation}
	assert.ErrorIs(t, mapPgError(fmt.Errorf("exec: %w", badUUID)), entity.ErrLeadNotFound)

	check := &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "leads_stage_check"}
	err := mapPgError(check)
	assert.ErrorIs(t, err, entity.ErrInvalidLead)
	assert.Contains(t, err.Error(), "leads_stage_check")

	other := &pgconn.PgError{Code: "53300"}
	assert.Same(t, other, mapPgError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapPgError(plain))
}

type fakeResult struct {
	rows int64
	err  error
}

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.rows, f.err }

func TestRequireOneRow(t *testing.T) {
	assert.NoError(t, requireOneRow(fakeResult{rows: 1}))
	assert.ErrorIs(t, requireOneRow(fakeResult{rows: 0}), entity.ErrLeadNotFound)
	assert.Error(t, requireOneRow(fakeResult{err: errors.New("driver")}))
}

func TestInsertArgs(t *testing.T) {
	args := insertArgs(entity.LeadDraft{
		OwnerID:   "owner-1",
		Name:      "Ann",
		Email:     strPtr("ann@x.io"),
		DealValue: 10,
		Stage:     entity.StageNew,
	})

	require.Len(t, args, 7)
	assert.Equal(t, "owner-1", args[0])
	assert.Equal(t, toNull(strPtr("ann@x.io")), args[2])
	assert.False(t, toNull(nil).Valid)
	assert.Equal(t, args[3], toNull(nil))
	assert.Equal(t, "New", args[5])
}

// Invalid input is rejected before the pool is touched, so a nil *sql.DB is safe here.
func TestLeadRepository_RejectsInvalidInputWithoutQuerying(t *testing.T) {
	repo := NewLeadRepository(nil)
	ctx := context.Background()

	_, err := repo.Create(ctx, entity.LeadDraft{OwnerID: "o", Name: "A", DealValue: 1e13})
	assert.ErrorIs(t, err, entity.ErrDealValueTooLarge)

	n, err := repo.CreateMany(ctx, []entity.LeadDraft{
		{OwnerID: "o", Name: "ok"},
		{OwnerID: "o", Name: "too big", DealValue: 1e13},
	})
	assert.ErrorIs(t, err, entity.ErrDealValueTooLarge)
	assert.Zero(t, n)

	huge := 1e13
	assert.ErrorIs(t, repo.Update(ctx, "o", "id", entity.LeadPatch{DealValue: &huge}), entity.ErrDealValueTooLarge)

	n, err = repo.CreateMany(ctx, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
