package repository

import (
	"context"
	"time"

	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// CampaignRepositoryInterface is the persistence port of the campaign core.
type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus, at time.Time) error

	// Groups. ReplaceGroups drops the previous groups of the campaign,
	// their members and their group-scoped template assignments, then
	// writes the new set, all or nothing.
	ReplaceGroups(ctx context.Context, campaignID string, groups []*model.CampaignGroup, members []*model.CampaignGroupMember) error
	ListGroups(ctx context.Context, campaignID string) ([]*model.CampaignGroup, error)
	ListGroupMembers(ctx context.Context, campaignID string) ([]*model.CampaignGroupMember, error)
	// LockGrouping returns ErrGroupingInProgress when the campaign is
	// already locked. The returned func releases the lock.
	LockGrouping(ctx context.Context, campaignID string) (func(), error)

	// Participants
	ReplaceParticipants(ctx context.Context, campaignID string, userIDs []string) error
	ListParticipants(ctx context.Context, campaignID string) ([]string, error)

	TemplateAssignmentStore
	ScheduleStore
}

// TemplateAssignmentStore upserts assignments by (campaign, group).
type TemplateAssignmentStore interface {
	UpsertTemplateAssignments(ctx context.Context, assignments []*model.CampaignTemplateAssignment) error
	ListTemplateAssignments(ctx context.Context, campaignID string) ([]*model.CampaignTemplateAssignment, error)
}

// ScheduleStore keeps at most one schedule per campaign. GetSchedule
// returns nil, nil when none exists.
type ScheduleStore interface {
	UpsertSchedule(ctx context.Context, s *model.CampaignSchedule) error
	GetSchedule(ctx context.Context, campaignID string) (*model.CampaignSchedule, error)
}

// UserDirectoryInterface reads tenant users.
type UserDirectoryInterface interface {
	// ListByTenant returns active users of the tenant in a stable order.
	ListByTenant(ctx context.Context, tenantID string) ([]model.DirectoryUser, error)
	// ConfirmMembership returns the ids in userIDs that are not active users
	// of the tenant.
	ConfirmMembership(ctx context.Context, tenantID string, userIDs []string) ([]string, error)
}
