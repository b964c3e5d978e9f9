package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// UpsertTemplateAssignments keeps one row per (campaign_id, group_id); the
// unique constraint treats a NULL group as a value. The stored id of an
// existing row wins and is copied back into the assignment.
func (r *CampaignRepository) UpsertTemplateAssignments(ctx context.Context, assignments []*model.CampaignTemplateAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range assignments {
		if a.GroupID != nil {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM campaigns.campaign_groups WHERE id::text=$1 AND campaign_id=$2`,
				*a.GroupID, a.CampaignID).Scan(&exists)
			if err == sql.ErrNoRows {
				return appErrors.NewGroupNotFound(*a.GroupID, a.CampaignID)
			}
			if err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO campaigns.campaign_templates
				(id, campaign_id, group_id, email_template_id, landing_page_id, assigned_mode, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (campaign_id, group_id) DO UPDATE
			SET email_template_id = EXCLUDED.email_template_id,
			    landing_page_id   = EXCLUDED.landing_page_id,
			    assigned_mode     = EXCLUDED.assigned_mode,
			    created_at        = EXCLUDED.created_at
			RETURNING id`,
			a.ID, a.CampaignID, a.GroupID, a.EmailTemplateID, a.LandingPageID, a.AssignedMode, a.CreatedAt,
		).Scan(&a.ID)
		if err != nil {
			if isPQCode(err, pqForeignKeyViolation) {
				return appErrors.NewCampaignNotFound(a.CampaignID)
			}
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) ListTemplateAssignments(ctx context.Context, campaignID string) ([]*model.CampaignTemplateAssignment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.campaign_id, t.group_id, t.email_template_id, t.landing_page_id, t.assigned_mode, t.created_at
		FROM campaigns.campaign_templates t
		LEFT JOIN campaigns.campaign_groups g ON g.id = t.group_id
		WHERE t.campaign_id=$1
		ORDER BY g.position NULLS FIRST`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.CampaignTemplateAssignment{}
	for rows.Next() {
		var a model.CampaignTemplateAssignment
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.GroupID, &a.EmailTemplateID, &a.LandingPageID, &a.AssignedMode, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ====================== Schedule ======================

// UpsertSchedule replaces type, cron_json and timezone of the campaign's
// schedule in place, or inserts it. ID and CreatedAt of an existing row are
// copied back into s.
func (r *CampaignRepository) UpsertSchedule(ctx context.Context, s *model.CampaignSchedule) error {
	cron := string(s.CronJSON)
	if cron == "" {
		cron = "{}"
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO campaigns.campaign_schedule (id, campaign_id, type, cron_json, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
		ON CONFLICT (campaign_id) DO UPDATE
		SET type       = EXCLUDED.type,
		    cron_json  = EXCLUDED.cron_json,
		    timezone   = EXCLUDED.timezone,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		s.ID, s.CampaignID, s.Type, cron, s.Timezone, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.NewCampaignNotFound(s.CampaignID)
		}
		return err
	}
	return nil
}

func (r *CampaignRepository) GetSchedule(ctx context.Context, campaignID string) (*model.CampaignSchedule, error) {
	var s model.CampaignSchedule
	var cron []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, campaign_id, type, cron_json, timezone, created_at, updated_at
		FROM campaigns.campaign_schedule
		WHERE campaign_id=$1`, campaignID,
	).Scan(&s.ID, &s.CampaignID, &s.Type, &cron, &s.Timezone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.CronJSON = cron
	return &s, nil
}
