package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/unclebandit/phishing-campaigns/internal/model"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
)

// MockCampaignRepository is a mock implementation of repository.CampaignRepositoryInterface
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) ListByTenant(ctx context.Context, tenantID string) ([]*model.Campaign, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockCampaignRepository) ReplaceGroups(ctx context.Context, campaignID string, groups []*model.CampaignGroup, members []*model.CampaignGroupMember) error {
	return m.Called(ctx, campaignID, groups, members).Error(0)
}

func (m *MockCampaignRepository) ListGroups(ctx context.Context, campaignID string) ([]*model.CampaignGroup, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignGroup), args.Error(1)
}

func (m *MockCampaignRepository) ListGroupMembers(ctx context.Context, campaignID string) ([]*model.CampaignGroupMember, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignGroupMember), args.Error(1)
}

func (m *MockCampaignRepository) LockGrouping(ctx context.Context, campaignID string) (func(), error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

func (m *MockCampaignRepository) ReplaceParticipants(ctx context.Context, campaignID string, userIDs []string) error {
	return m.Called(ctx, campaignID, userIDs).Error(0)
}

func (m *MockCampaignRepository) ListParticipants(ctx context.Context, campaignID string) ([]string, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCampaignRepository) UpsertTemplateAssignments(ctx context.Context, assignments []*model.CampaignTemplateAssignment) error {
	return m.Called(ctx, assignments).Error(0)
}

func (m *MockCampaignRepository) ListTemplateAssignments(ctx context.Context, campaignID string) ([]*model.CampaignTemplateAssignment, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignTemplateAssignment), args.Error(1)
}

func (m *MockCampaignRepository) UpsertSchedule(ctx context.Context, s *model.CampaignSchedule) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockCampaignRepository) GetSchedule(ctx context.Context, campaignID string) (*model.CampaignSchedule, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignSchedule), args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ListByTenant(ctx context.Context, tenantID string) ([]model.DirectoryUser, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DirectoryUser), args.Error(1)
}

func (m *MockUserDirectory) ConfirmMembership(ctx context.Context, tenantID string, userIDs []string) ([]string, error) {
	args := m.Called(ctx, tenantID, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload any) error {
	return m.Called(ctx, topic, payload).Error(0)
}

var (
	_ repository.CampaignRepositoryInterface = (*MockCampaignRepository)(nil)
	_ repository.UserDirectoryInterface      = (*MockUserDirectory)(nil)
)
