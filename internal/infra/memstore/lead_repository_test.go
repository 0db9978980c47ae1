package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLeadRepository_CreateDefaults(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewLeadRepository().WithClock(fixedClock(at))
	blank := "  "

	l, err := repo.Create(context.Background(), entity.LeadDraft{OwnerID: "u1", Name: " Ann ", Email: &blank})
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Ann", l.Name)
	assert.Nil(t, l.Email)
	assert.Equal(t, entity.StageNew, l.Stage)
	assert.Equal(t, 0.0, l.DealValue)
	assert.Equal(t, at, l.CreatedAt)
	assert.Equal(t, at, l.UpdatedAt)
}

func TestLeadRepository_CreateRejectsBlankName(t *testing.T) {
	repo := NewLeadRepository()
	_, err := repo.Create(context.Background(), entity.LeadDraft{OwnerID: "u1", Name: " "})
	assert.ErrorIs(t, err, entity.ErrNameRequired)
}

func TestLeadRepository_FindByOwnerNewestFirstAndScoped(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := NewLeadRepository()
	repo.Put(entity.Lead{ID: "a", OwnerID: "u1", Name: "A", Stage: entity.StageNew, CreatedAt: base})
	repo.Put(entity.Lead{ID: "b", OwnerID: "u1", Name: "B", Stage: entity.StageNew, CreatedAt: base.Add(time.Hour)})
	repo.Put(entity.Lead{ID: "c", OwnerID: "u2", Name: "C", Stage: entity.StageNew, CreatedAt: base.Add(2 * time.Hour)})

	leads, err := repo.FindByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "b", leads[0].ID)
	assert.Equal(t, "a", leads[1].ID)
}

func TestLeadRepository_CreateManyIsAllOrNothing(t *testing.T) {
	repo := NewLeadRepository()
	_, err := repo.CreateMany(context.Background(), []entity.LeadDraft{
		{OwnerID: "u1", Name: "ok"},
		{OwnerID: "u1", Name: ""},
	})
	require.Error(t, err)

	leads, err := repo.FindByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadRepository_UpdateRefreshesUpdatedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(48 * time.Hour)
	repo := NewLeadRepository().WithClock(fixedClock(created))

	l, err := repo.Create(context.Background(), entity.LeadDraft{OwnerID: "u1", Name: "A"})
	require.NoError(t, err)

	repo.WithClock(fixedClock(later))
	require.NoError(t, repo.Update(context.Background(), "u1", l.ID, entity.StagePatch(entity.StageQualified)))

	leads, _ := repo.FindByOwner(context.Background(), "u1")
	require.Len(t, leads, 1)
	assert.Equal(t, entity.StageQualified, leads[0].Stage)
	assert.Equal(t, created, leads[0].CreatedAt)
	assert.Equal(t, later, leads[0].UpdatedAt)
}

func TestLeadRepository_OtherOwnerCannotMutate(t *testing.T) {
	repo := NewLeadRepository()
	l, err := repo.Create(context.Background(), entity.LeadDraft{OwnerID: "u1", Name: "A"})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Update(context.Background(), "u2", l.ID, entity.StagePatch(entity.StageContacted)), entity.ErrLeadNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2", l.ID), entity.ErrLeadNotFound)
	require.NoError(t, repo.Delete(context.Background(), "u1", l.ID))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1", l.ID), entity.ErrLeadNotFound)
}

func TestLeadRepository_ListOwners(t *testing.T) {
	repo := NewLeadRepository()
	_, _ = repo.CreateMany(context.Background(), []entity.LeadDraft{
		{OwnerID: "u2", Name: "x"}, {OwnerID: "u1", Name: "y"}, {OwnerID: "u2", Name: "z"},
	})

	owners, err := repo.ListOwners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, owners)
}
