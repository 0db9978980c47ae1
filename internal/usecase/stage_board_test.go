package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

var boardNow = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

func boardLeads() []*entity.Lead {
	return []*entity.Lead{
		leadAt("1", entity.StageNew, 100, boardNow),
		leadAt("2", entity.StageContacted, 200, boardNow),
	}
}

func TestStageBoard_MoveSuccess(t *testing.T) {
	repo := new(MockLeadRepository)
	events := new(MockEventPublisher)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil).Once()
	repo.On("Update", mock.Anything, "u1", "1", entity.StagePatch(entity.StageQualified)).Return(nil)
	events.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(ev queue.LeadEvent) bool {
		return ev.Type == queue.EventLeadStageChanged && ev.LeadID == "1" && ev.Stage == "Qualified"
	})).Return(nil)

	b := NewStageBoard("u1", repo, events, nil)
	b.Now = func() time.Time { return boardNow.Add(time.Hour) }

	res, err := b.Move(context.Background(), "1", entity.StageQualified)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Reconciled)
	assert.Equal(t, entity.StageQualified, res.Lead.Stage)

	cols := b.Columns()
	assert.Equal(t, 0, cols[0].Count)
	assert.Equal(t, 1, cols[2].Count)
	assert.Equal(t, "1", cols[2].Leads[0].ID)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestStageBoard_MoveDoesNotMutateFetchedLeads(t *testing.T) {
	fetched := boardLeads()
	repo := new(MockLeadRepository)
	repo.On("FindByOwner", mock.Anything, "u1").Return(fetched, nil)
	repo.On("Update", mock.Anything, "u1", "1", mock.Anything).Return(nil)

	b := NewStageBoard("u1", repo, nil, nil)
	_, err := b.Move(context.Background(), "1", entity.StageClosedWon)
	require.NoError(t, err)

	assert.Equal(t, entity.StageNew, fetched[0].Stage)
}

func TestStageBoard_StoreFailureReconcilesWithFreshList(t *testing.T) {
	// Someone else moved lead 2 to Closed Lost in the meantime.
	fresh := []*entity.Lead{
		leadAt("1", entity.StageNew, 100, boardNow),
		leadAt("2", entity.StageClosedLost, 200, boardNow),
		leadAt("3", entity.StageNew, 300, boardNow),
	}
	repo := new(MockLeadRepository)
	events := new(MockEventPublisher)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil).Once()
	repo.On("Update", mock.Anything, "u1", "1", mock.Anything).Return(errors.New("503"))
	repo.On("FindByOwner", mock.Anything, "u1").Return(fresh, nil).Once()

	b := NewStageBoard("u1", repo, events, nil)
	res, err := b.Move(context.Background(), "1", entity.StageQualified)

	require.Error(t, err)
	assert.True(t, IsStoreError(err))
	assert.True(t, res.Reconciled)
	assert.Equal(t, fresh, b.Leads())
	events.AssertNotCalled(t, "PublishLeadEvent", mock.Anything, mock.Anything)
}

func TestStageBoard_ReconcileFetchFailureDropsSnapshot(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil).Once()
	repo.On("Update", mock.Anything, "u1", "1", mock.Anything).Return(errors.New("503"))
	repo.On("FindByOwner", mock.Anything, "u1").Return(nil, errors.New("still down")).Once()

	b := NewStageBoard("u1", repo, nil, nil)
	res, err := b.Move(context.Background(), "1", entity.StageQualified)

	require.Error(t, err)
	assert.True(t, res.Reconciled)
	assert.Empty(t, b.Leads())
}

func TestStageBoard_SameStageIsNoop(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil)

	b := NewStageBoard("u1", repo, nil, nil)
	res, err := b.Move(context.Background(), "2", entity.StageContacted)

	require.NoError(t, err)
	assert.False(t, res.Changed)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStageBoard_UnknownLeadRefreshesOnce(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil).Twice()

	b := NewStageBoard("u1", repo, nil, nil)
	_, err := b.Move(context.Background(), "missing", entity.StageQualified)

	assert.Equal(t, CodeNotFound, DomainCode(err))
	repo.AssertNumberOfCalls(t, "FindByOwner", 2)
}

func TestStageBoard_InvalidStage(t *testing.T) {
	b := NewStageBoard("u1", new(MockLeadRepository), nil, nil)
	_, err := b.Move(context.Background(), "1", entity.Stage("Won"))
	assert.Equal(t, CodeInvalidStage, DomainCode(err))
}

func TestGroupByStage(t *testing.T) {
	cols := GroupByStage([]*entity.Lead{
		leadAt("a", entity.StageNew, 10, boardNow),
		leadAt("b", entity.StageClosedWon, 5, boardNow),
		leadAt("c", entity.StageNew, 20, boardNow),
	})

	require.Len(t, cols, 5)
	assert.Equal(t, entity.StageNew, cols[0].Stage)
	assert.Equal(t, 2, cols[0].Count)
	assert.Equal(t, 30.0, cols[0].Value)
	assert.Equal(t, []string{"a", "c"}, []string{cols[0].Leads[0].ID, cols[0].Leads[1].ID})
	assert.NotNil(t, cols[1].Leads)
	assert.Equal(t, 1, cols[3].Count)
}

func TestBoardRegistry_InvalidateForcesRefetch(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("FindByOwner", mock.Anything, "u1").Return(boardLeads(), nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)

	reg := NewBoardRegistry(repo, nil, nil)
	assert.Same(t, reg.For("u1"), reg.For("u1"))

	_, err := reg.For("u1").Move(context.Background(), "1", entity.StageContacted)
	require.NoError(t, err)
	reg.Invalidate("u1")
	_, err = reg.For("u1").Move(context.Background(), "2", entity.StageQualified)
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "FindByOwner", 2)
}
