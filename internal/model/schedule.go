package model

import (
	"encoding/json"
	"time"
)

type ScheduleType string

const (
	ScheduleOnce       ScheduleType = "once"
	ScheduleSequential ScheduleType = "sequential"
	ScheduleWindowed   ScheduleType = "windowed"
)

const DefaultTimezone = "UTC"

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleOnce, ScheduleSequential, ScheduleWindowed:
		return true
	}
	return false
}

// CampaignSchedule is the single send schedule of a campaign. CronJSON is
// stored as-is for the external scheduler.
type CampaignSchedule struct {
	ID         string          `db:"id" json:"id"`
	CampaignID string          `db:"campaign_id" json:"campaign_id"`
	Type       ScheduleType    `db:"type" json:"type"`
	CronJSON   json.RawMessage `db:"cron_json" json:"cron_json"`
	Timezone   string          `db:"timezone" json:"timezone"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
