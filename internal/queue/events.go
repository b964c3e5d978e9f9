package queue

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const TopicCampaignLaunched = "campaign.launched"

// CampaignLaunched is published once a campaign enters running.
type CampaignLaunched struct {
	CampaignID string    `json:"campaign_id"`
	TenantID   string    `json:"tenant_id"`
	LaunchedAt time.Time `json:"launched_at"`
}

// StartLaunchEventSubscriber logs launch events delivered through q. It is
// the in-process consumer used when no broker is configured.
func StartLaunchEventSubscriber(q Queue, logger *zap.Logger) error {
	return q.Subscribe(TopicCampaignLaunched, func(payload any) error {
		ev, ok := payload.(CampaignLaunched)
		if !ok {
			logger.Warn("Unexpected launch payload", zap.String("type", fmt.Sprintf("%T", payload)))
			return nil
		}
		logger.Info("Campaign launched",
			zap.String("campaign_id", ev.CampaignID),
			zap.String("tenant_id", ev.TenantID),
			zap.Time("launched_at", ev.LaunchedAt))
		return nil
	})
}
