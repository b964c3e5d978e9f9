// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/grouping"
	"github.com/unclebandit/phishing-campaigns/internal/model"
	"github.com/unclebandit/phishing-campaigns/internal/queue"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
)

// DefaultCreator is recorded as created_by when the caller is anonymous.
const DefaultCreator = "SYSTEM"

// CampaignService sequences the campaign workflow against the store and the
// user directory. Templates and Schedules are derived from CampaignRepo when
// left nil; Grouper defaults to grouping.Partition.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Directory    repository.UserDirectoryInterface
	Templates    *TemplateAssignmentManager
	Schedules    *ScheduleManager
	Publisher    queue.Publisher
	Logger       *zap.Logger

	Grouper                func(users []grouping.Member, groups int, maxSharePerDept float64) (grouping.Result, error)
	DefaultMaxSharePerDept float64
	Now                    func() time.Time
	NewID                  func() string
}

type CreateCampaignInput struct {
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Strategy    string     `json:"strategy,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

// UpdateCampaignInput carries only the fields to change.
type UpdateCampaignInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

type AttachParticipantsInput struct {
	UserIDs   []string `json:"user_ids"`
	TenantIDs []string `json:"tenant_ids,omitempty"`
}

type AutoGroupInput struct {
	Groups          int      `json:"groups"`
	MaxSharePerDept *float64 `json:"max_share_per_dept,omitempty"`
}

// AutoGroupSummary describes a completed grouping run.
type AutoGroupSummary struct {
	CampaignID      string                `json:"campaign_id"`
	Groups          []GroupWithMembers    `json:"groups"`
	Users           int                   `json:"users"`
	MaxSharePerDept float64               `json:"max_share_per_dept"`
	Relaxations     []grouping.Relaxation `json:"relaxations"`
}

type GroupWithMembers struct {
	*model.CampaignGroup
	Members []*model.CampaignGroupMember `json:"members"`
}

// ====================== Campaign CRUD ======================

func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" {
		return nil, appErrors.NewValidation("tenant_id", "is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	strategy := model.StrategyAuto
	if in.Strategy != "" {
		strategy = model.Strategy(in.Strategy)
		if !strategy.Valid() {
			return nil, appErrors.NewValidation("strategy", "must be auto or manual")
		}
	}
	if err := checkWindow(in.StartAt, in.EndAt); err != nil {
		return nil, err
	}
	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultCreator
	}

	now := s.now()
	c := &model.Campaign{
		ID:          s.newID(),
		TenantID:    tenantID,
		Name:        name,
		Description: in.Description,
		Status:      model.StatusDraft,
		Strategy:    strategy,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("Campaign created", zap.String("campaign_id", c.ID), zap.String("tenant_id", c.TenantID))
	return c, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// ListCampaigns returns the tenant's campaigns, newest first.
func (s *CampaignService) ListCampaigns(ctx context.Context, tenantID string) ([]*model.Campaign, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, appErrors.NewValidation("tenant_id", "is required")
	}
	return s.CampaignRepo.ListByTenant(ctx, tenantID)
}

// UpdateCampaign edits name, description and the campaign window. Tenant,
// status and creation time are never touched here.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, in UpdateCampaignInput) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, appErrors.NewValidation("name", "must not be empty")
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.StartAt != nil {
		c.StartAt = in.StartAt
	}
	if in.EndAt != nil {
		c.EndAt = in.EndAt
	}
	if err := checkWindow(c.StartAt, c.EndAt); err != nil {
		return nil, err
	}

	c.UpdatedAt = s.now()
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return appErrors.NewValidation("end_at", "must not be before start_at")
	}
	return nil
}

// ====================== Participants & grouping ======================

// AttachParticipants validates that every user belongs to the tenant scope
// and stores them as the campaign's grouping pool, replacing any earlier pool.
// The scope is the first of in.TenantIDs, else callerTenantID.
func (s *CampaignService) AttachParticipants(ctx context.Context, campaignID string, in AttachParticipantsInput, callerTenantID string) error {
	var tenantID string
	if len(in.TenantIDs) > 0 {
		tenantID = strings.TrimSpace(in.TenantIDs[0])
	} else {
		tenantID = strings.TrimSpace(callerTenantID)
	}
	if tenantID == "" {
		return appErrors.NewValidation("tenant_id", "tenant scope is required")
	}
	if len(in.UserIDs) == 0 {
		return appErrors.NewValidation("user_ids", "at least one user is required")
	}

	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.TenantID != tenantID {
		return appErrors.NewValidation("tenant_id", "campaign does not belong to tenant "+tenantID)
	}

	unknown, err := s.Directory.ConfirmMembership(ctx, tenantID, in.UserIDs)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return appErrors.NewUnknownUsers(tenantID, unknown)
	}

	if err := s.CampaignRepo.ReplaceParticipants(ctx, campaignID, in.UserIDs); err != nil {
		return err
	}
	s.log().Info("Participants attached", zap.String("campaign_id", campaignID), zap.Int("users", len(in.UserIDs)))
	return nil
}

// AutoGroup partitions the campaign's users and replaces its groups. Only
// one run per campaign may be in flight.
func (s *CampaignService) AutoGroup(ctx context.Context, campaignID string, in AutoGroupInput) (*AutoGroupSummary, error) {
	if in.Groups <= 0 {
		return nil, appErrors.NewValidation("groups", "must be greater than 0")
	}
	share := s.DefaultMaxSharePerDept
	if in.MaxSharePerDept != nil {
		share = *in.MaxSharePerDept
	}
	if share <= 0 || share > 1 {
		return nil, appErrors.NewValidation("max_share_per_dept", "must be in (0, 1]")
	}

	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.CampaignRepo.LockGrouping(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pool, err := s.groupingPool(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, appErrors.NewValidation("users", "no users to group")
	}

	res, err := s.grouper()(pool, in.Groups, share)
	if err != nil {
		return nil, err
	}
	if err := grouping.CheckConservation(pool, res); err != nil {
		s.log().Error("Grouping lost or duplicated users", zap.String("campaign_id", campaignID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	groups := make([]*model.CampaignGroup, 0, len(res.Groups))
	members := make([]*model.CampaignGroupMember, 0, len(pool))
	out := make([]GroupWithMembers, 0, len(res.Groups))
	for i, g := range res.Groups {
		group := &model.CampaignGroup{
			ID:         s.newID(),
			CampaignID: campaignID,
			Name:       g.Name,
			Difficulty: g.Difficulty,
			AIScore:    g.AIScore,
			Position:   i,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		groups = append(groups, group)

		gm := make([]*model.CampaignGroupMember, 0, len(g.Members))
		for j, m := range g.Members {
			member := &model.CampaignGroupMember{
				ID:           s.newID(),
				GroupID:      group.ID,
				UserID:       m.UserID,
				DepartmentID: m.DepartmentID,
				Position:     j,
			}
			gm = append(gm, member)
			members = append(members, member)
		}
		out = append(out, GroupWithMembers{CampaignGroup: group, Members: gm})
	}

	if err := s.CampaignRepo.ReplaceGroups(ctx, campaignID, groups, members); err != nil {
		return nil, err
	}

	s.log().Info("Campaign grouped",
		zap.String("campaign_id", campaignID),
		zap.Int("users", len(pool)),
		zap.Int("groups", len(groups)),
		zap.Int("relaxations", len(res.Relaxations)),
		zap.Float64("max_share_per_dept", share))

	relaxations := res.Relaxations
	if relaxations == nil {
		relaxations = []grouping.Relaxation{}
	}
	return &AutoGroupSummary{
		CampaignID:      campaignID,
		Groups:          out,
		Users:           len(pool),
		MaxSharePerDept: share,
		Relaxations:     relaxations,
	}, nil
}

// groupingPool is the stored participant pool when there is one, in attach
// order and restricted to users still in the directory; otherwise all
// tenant users.
func (s *CampaignService) groupingPool(ctx context.Context, c *model.Campaign) ([]grouping.Member, error) {
	users, err := s.Directory.ListByTenant(ctx, c.TenantID)
	if err != nil {
		return nil, err
	}
	participants, err := s.CampaignRepo.ListParticipants(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if len(participants) == 0 {
		pool := make([]grouping.Member, 0, len(users))
		for _, u := range users {
			pool = append(pool, grouping.Member{UserID: u.UserID, DepartmentID: u.DepartmentID})
		}
		return pool, nil
	}

	byID := make(map[string]model.DirectoryUser, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	pool := make([]grouping.Member, 0, len(participants))
	for _, id := range participants {
		u, ok := byID[id]
		if !ok {
			s.log().Warn("Participant left the directory", zap.String("campaign_id", c.ID), zap.String("user_id", id))
			continue
		}
		pool = append(pool, grouping.Member{UserID: u.UserID, DepartmentID: u.DepartmentID})
	}
	return pool, nil
}

// ListGroups returns the campaign's groups in order, each with its members.
func (s *CampaignService) ListGroups(ctx context.Context, campaignID string) ([]GroupWithMembers, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	groups, err := s.CampaignRepo.ListGroups(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	members, err := s.CampaignRepo.ListGroupMembers(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]*model.CampaignGroupMember, len(groups))
	for _, m := range members {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
	}
	out := make([]GroupWithMembers, 0, len(groups))
	for _, g := range groups {
		ms := byGroup[g.ID]
		if ms == nil {
			ms = []*model.CampaignGroupMember{}
		}
		out = append(out, GroupWithMembers{CampaignGroup: g, Members: ms})
	}
	return out, nil
}

// ====================== Templates ======================

func (s *CampaignService) AssignTemplatesAuto(ctx context.Context, campaignID string) (*model.CampaignTemplateAssignment, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.templates().AssignAuto(ctx, campaignID)
}

func (s *CampaignService) AssignTemplatesManual(ctx context.Context, campaignID string, in ManualAssignment) (*model.CampaignTemplateAssignment, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.templates().AssignManual(ctx, campaignID, in)
}

func (s *CampaignService) ListTemplates(ctx context.Context, campaignID string) ([]*model.CampaignTemplateAssignment, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.CampaignRepo.ListTemplateAssignments(ctx, campaignID)
}

// ====================== Schedule & lifecycle ======================

// DefineSchedule stores the campaign's schedule and moves it to scheduled.
// Only draft and scheduled campaigns accept a schedule. Running, paused,
// finished and cancelled campaigns get ErrInvalidTransition, and the
// lifecycle is checked before the upsert so their stored schedule is left
// untouched.
func (s *CampaignService) DefineSchedule(ctx context.Context, campaignID string, req ScheduleRequest) (*model.CampaignSchedule, error) {
	req, err := s.schedules().Normalize(req)
	if err != nil {
		return nil, err
	}

	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := model.CheckTransition(from, model.StatusScheduled); err != nil {
		return nil, err
	}

	sched, err := s.schedules().Upsert(ctx, campaignID, req)
	if err != nil {
		return nil, err
	}
	if err := s.moveTo(ctx, c, model.StatusScheduled); err != nil {
		return nil, err
	}

	s.log().Info("Campaign scheduled",
		zap.String("campaign_id", campaignID),
		zap.String("type", string(sched.Type)),
		zap.String("timezone", sched.Timezone),
		zap.String("from", string(from)))
	return sched, nil
}

// GetSchedule returns nil, nil when the campaign has no schedule yet.
func (s *CampaignService) GetSchedule(ctx context.Context, campaignID string) (*ScheduleView, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.schedules().View(ctx, campaignID)
}

// Launch moves a scheduled campaign to running and announces it. A failed
// announcement is logged; the campaign stays running.
func (s *CampaignService) Launch(ctx context.Context, campaignID string) (*model.Campaign, error) {
	c, err := s.transition(ctx, campaignID, model.StatusRunning)
	if err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		ev := queue.CampaignLaunched{CampaignID: c.ID, TenantID: c.TenantID, LaunchedAt: c.UpdatedAt}
		if err := s.Publisher.Publish(ctx, queue.TopicCampaignLaunched, ev); err != nil {
			s.log().Error("Failed to publish launch event", zap.String("campaign_id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

func (s *CampaignService) Pause(ctx context.Context, campaignID string) (*model.Campaign, error) {
	return s.transition(ctx, campaignID, model.StatusPaused)
}

// Resume has no defined behavior yet: a paused campaign reports
// ErrNotSupported, any other non-terminal one ErrInvalidTransition.
func (s *CampaignService) Resume(ctx context.Context, campaignID string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusPaused && !c.Status.Terminal() {
		return nil, appErrors.NewInvalidTransition(string(c.Status), string(model.StatusRunning))
	}
	return nil, model.CheckTransition(c.Status, model.StatusRunning)
}

func (s *CampaignService) Finish(ctx context.Context, campaignID string) (*model.Campaign, error) {
	return s.transition(ctx, campaignID, model.StatusFinished)
}

func (s *CampaignService) Cancel(ctx context.Context, campaignID string) (*model.Campaign, error) {
	return s.transition(ctx, campaignID, model.StatusCancelled)
}

func (s *CampaignService) transition(ctx context.Context, campaignID string, to model.CampaignStatus) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := s.moveTo(ctx, c, to); err != nil {
		return nil, err
	}
	s.log().Info("Campaign status changed",
		zap.String("campaign_id", campaignID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return c, nil
}

func (s *CampaignService) moveTo(ctx context.Context, c *model.Campaign, to model.CampaignStatus) error {
	if err := c.TransitionTo(to, s.now()); err != nil {
		var invalid *appErrors.ErrInvalidTransition
		if errors.As(err, &invalid) {
			s.log().Warn("Rejected status change", zap.String("campaign_id", c.ID), zap.Error(err))
		}
		return err
	}
	return s.CampaignRepo.UpdateStatus(ctx, c.ID, c.Status, c.UpdatedAt)
}

// ====================== helpers ======================

func (s *CampaignService) templates() *TemplateAssignmentManager {
	if s.Templates != nil {
		return s.Templates
	}
	return &TemplateAssignmentManager{Store: s.CampaignRepo, Now: s.now, NewID: s.newID}
}

func (s *CampaignService) schedules() *ScheduleManager {
	if s.Schedules != nil {
		return s.Schedules
	}
	return &ScheduleManager{Store: s.CampaignRepo, Now: s.now, NewID: s.newID}
}

func (s *CampaignService) grouper() func([]grouping.Member, int, float64) (grouping.Result, error) {
	if s.Grouper != nil {
		return s.Grouper
	}
	return grouping.Partition
}

func (s *CampaignService) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CampaignService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
