// internal/service/template_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
)

// TemplateAssignmentManager writes template bindings. Every write is an
// upsert on (campaign, group), so repeating a call supersedes the previous
// binding.
type TemplateAssignmentManager struct {
	Store repository.TemplateAssignmentStore
	Now   func() time.Time
	NewID func() string
}

// ManualAssignment binds content to one group of the campaign.
type ManualAssignment struct {
	GroupID         string  `json:"group_id"`
	EmailTemplateID *string `json:"email_template_id,omitempty"`
	LandingPageID   *string `json:"landing_page_id,omitempty"`
}

// AssignAuto writes the single campaign-wide auto assignment. No template
// catalog is wired yet, so content ids stay empty.
func (m *TemplateAssignmentManager) AssignAuto(ctx context.Context, campaignID string) (*model.CampaignTemplateAssignment, error) {
	a := &model.CampaignTemplateAssignment{
		ID:           m.newID(),
		CampaignID:   campaignID,
		AssignedMode: model.AssignedAuto,
		CreatedAt:    m.now(),
	}
	if err := m.Store.UpsertTemplateAssignments(ctx, []*model.CampaignTemplateAssignment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *TemplateAssignmentManager) AssignManual(ctx context.Context, campaignID string, req ManualAssignment) (*model.CampaignTemplateAssignment, error) {
	groupID := strings.TrimSpace(req.GroupID)
	if groupID == "" {
		return nil, appErrors.NewValidation("group_id", "is required")
	}

	a := &model.CampaignTemplateAssignment{
		ID:              m.newID(),
		CampaignID:      campaignID,
		GroupID:         &groupID,
		EmailTemplateID: nonEmpty(req.EmailTemplateID),
		LandingPageID:   nonEmpty(req.LandingPageID),
		AssignedMode:    model.AssignedManual,
		CreatedAt:       m.now(),
	}
	if err := m.Store.UpsertTemplateAssignments(ctx, []*model.CampaignTemplateAssignment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *TemplateAssignmentManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *TemplateAssignmentManager) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
