package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Create(ctx context.Context, draft entity.LeadDraft) (*entity.Lead, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) CreateMany(ctx context.Context, drafts []entity.LeadDraft) (int, error) {
	args := m.Called(ctx, drafts)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, ownerID, id string, patch entity.LeadPatch) error {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
