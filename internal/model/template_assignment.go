package model

import "time"

type AssignedMode string

const (
	AssignedAuto   AssignedMode = "auto"
	AssignedManual AssignedMode = "manual"
)

// CampaignTemplateAssignment binds content to a group, or to the whole
// campaign when GroupID is nil. (CampaignID, GroupID) is unique.
type CampaignTemplateAssignment struct {
	ID              string       `db:"id" json:"id"`
	CampaignID      string       `db:"campaign_id" json:"campaign_id"`
	GroupID         *string      `db:"group_id" json:"group_id,omitempty"`
	EmailTemplateID *string      `db:"email_template_id" json:"email_template_id,omitempty"`
	LandingPageID   *string      `db:"landing_page_id" json:"landing_page_id,omitempty"`
	AssignedMode    AssignedMode `db:"assigned_mode" json:"assigned_mode"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}

// Key is the upsert key of an assignment.
func (a *CampaignTemplateAssignment) Key() string {
	if a.GroupID == nil {
		return a.CampaignID + "|"
	}
	return a.CampaignID + "|" + *a.GroupID
}
