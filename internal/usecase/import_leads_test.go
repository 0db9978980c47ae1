package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

func TestImportLeads_CommitsOnlyValidRows(t *testing.T) {
	rows, err := ParseLeadsCSV("Name,Email\nJohn,john@x.com\n,bademail")
	require.NoError(t, err)

	repo := new(MockLeadRepository)
	events := new(MockEventPublisher)
	repo.On("CreateMany", mock.Anything, mock.MatchedBy(func(d []entity.LeadDraft) bool {
		return len(d) == 1 && d[0].Name == "John" && d[0].OwnerID == "u1" && d[0].Stage == entity.StageNew
	})).Return(1, nil)
	events.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(ev queue.LeadEvent) bool {
		return ev.Type == queue.EventLeadsImported && ev.Inserted == 1 && ev.Rejected == 1
	})).Return(nil)

	uc := NewImportLeadsUseCase(repo, events, nil)
	res, err := uc.Execute(context.Background(), "u1", rows)

	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 1, Rejected: 1}, res)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestImportLeads_StoreFailureInsertsNothing(t *testing.T) {
	rows, _ := ParseLeadsCSV("Name\nA\nB")

	repo := new(MockLeadRepository)
	events := new(MockEventPublisher)
	repo.On("CreateMany", mock.Anything, mock.Anything).Return(0, errors.New("connection reset"))

	uc := NewImportLeadsUseCase(repo, events, nil)
	res, err := uc.Execute(context.Background(), "u1", rows)

	require.Error(t, err)
	assert.True(t, IsStoreError(err))
	assert.Equal(t, 0, res.Inserted)
	events.AssertNotCalled(t, "PublishLeadEvent", mock.Anything, mock.Anything)
}

func TestImportLeads_NoValidRows(t *testing.T) {
	rows, _ := ParseLeadsCSV("Name\n \"\"")

	repo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(repo, nil, nil)
	res, err := uc.Execute(context.Background(), "u1", rows)

	require.Error(t, err)
	assert.Equal(t, CodeNothingToImport, DomainCode(err))
	assert.Equal(t, 1, res.Rejected)
	repo.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}

func TestImportLeads_PublishFailureDoesNotFailImport(t *testing.T) {
	rows, _ := ParseLeadsCSV("Name\nA")

	repo := new(MockLeadRepository)
	events := new(MockEventPublisher)
	repo.On("CreateMany", mock.Anything, mock.Anything).Return(1, nil)
	events.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := NewImportLeadsUseCase(repo, events, nil).Execute(context.Background(), "u1", rows)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
}
