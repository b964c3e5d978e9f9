// internal/model/campaign.go
package model

import "time"

type Strategy string

const (
	StrategyAuto   Strategy = "auto"
	StrategyManual Strategy = "manual"
)

func (s Strategy) Valid() bool {
	return s == StrategyAuto || s == StrategyManual
}

// Campaign is a simulated-phishing campaign scoped to one tenant.
// TenantID and CreatedAt are set once at creation.
type Campaign struct {
	ID          string         `db:"id" json:"id"`
	TenantID    string         `db:"tenant_id" json:"tenant_id"`
	Name        string         `db:"name" json:"name"`
	Description *string        `db:"description" json:"description,omitempty"`
	Status      CampaignStatus `db:"status" json:"status"`
	Strategy    Strategy       `db:"strategy" json:"strategy"`
	StartAt     *time.Time     `db:"start_at" json:"start_at,omitempty"`
	EndAt       *time.Time     `db:"end_at" json:"end_at,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// TransitionTo moves the campaign along the lifecycle graph and touches UpdatedAt.
func (c *Campaign) TransitionTo(to CampaignStatus, now time.Time) error {
	if err := CheckTransition(c.Status, to); err != nil {
		return err
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}
