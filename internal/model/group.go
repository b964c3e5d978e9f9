package model

import "time"

type Difficulty string

const (
	DifficultyLow    Difficulty = "low"
	DifficultyMedium Difficulty = "medium"
	DifficultyHigh   Difficulty = "high"
)

// CampaignGroup is owned by exactly one campaign.
type CampaignGroup struct {
	ID         string     `db:"id" json:"id"`
	CampaignID string     `db:"campaign_id" json:"campaign_id"`
	Name       string     `db:"name" json:"name"`
	Difficulty Difficulty `db:"difficulty" json:"difficulty"`
	AIScore    float64    `db:"ai_score" json:"ai_score"`
	Position   int        `db:"position" json:"position"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CampaignGroupMember references a directory user. DepartmentID is the
// department at grouping time, not a live link.
type CampaignGroupMember struct {
	ID           string  `db:"id" json:"id"`
	GroupID      string  `db:"group_id" json:"group_id"`
	UserID       string  `db:"user_id" json:"user_id"`
	DepartmentID *string `db:"department_id" json:"department_id,omitempty"`
	Position     int     `db:"position" json:"-"`
}
