package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// ReplaceGroups runs in one transaction so readers never see groups
// without their members.
func (r *CampaignRepository) ReplaceGroups(ctx context.Context, campaignID string, groups []*model.CampaignGroup, members []*model.CampaignGroupMember) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Members and group-scoped template assignments go with their groups (ON DELETE CASCADE).
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns.campaign_groups WHERE campaign_id=$1`, campaignID); err != nil {
		return err
	}

	for _, g := range groups {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns.campaign_groups (id, campaign_id, name, difficulty, ai_score, position, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			g.ID, campaignID, g.Name, g.Difficulty, g.AIScore, g.Position, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			if isPQCode(err, pqForeignKeyViolation) {
				return appErrors.NewCampaignNotFound(campaignID)
			}
			return err
		}
	}

	for _, m := range members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns.campaign_group_members (id, group_id, user_id, department_id, position)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.GroupID, m.UserID, m.DepartmentID, m.Position)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) ListGroups(ctx context.Context, campaignID string) ([]*model.CampaignGroup, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, campaign_id, name, difficulty, ai_score, position, created_at, updated_at
		FROM campaigns.campaign_groups
		WHERE campaign_id=$1
		ORDER BY position`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*model.CampaignGroup{}
	for rows.Next() {
		var g model.CampaignGroup
		if err := rows.Scan(&g.ID, &g.CampaignID, &g.Name, &g.Difficulty, &g.AIScore, &g.Position, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *CampaignRepository) ListGroupMembers(ctx context.Context, campaignID string) ([]*model.CampaignGroupMember, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.group_id, m.user_id, m.department_id, m.position
		FROM campaigns.campaign_group_members m
		JOIN campaigns.campaign_groups g ON g.id = m.group_id
		WHERE g.campaign_id=$1
		ORDER BY g.position, m.position`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*model.CampaignGroupMember{}
	for rows.Next() {
		var m model.CampaignGroupMember
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.DepartmentID, &m.Position); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// LockGrouping claims the campaign's row in campaign_grouping_locks for
// GroupingLease. No connection is held while the lock is taken, so the rest
// of the run draws from the pool like any other request. A lease left
// behind by a crashed process expires and can be claimed again.
func (r *CampaignRepository) LockGrouping(ctx context.Context, campaignID string) (func(), error) {
	lease := r.GroupingLease
	if lease <= 0 {
		lease = DefaultGroupingLease
	}
	token := uuid.NewString()

	var claimed string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO campaigns.campaign_grouping_locks AS l (campaign_id, token, expires_at)
		VALUES ($1, $2, now() + make_interval(secs => $3::double precision))
		ON CONFLICT (campaign_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
		WHERE l.expires_at < now()
		RETURNING token`,
		campaignID, token, lease.Seconds(),
	).Scan(&claimed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.NewGroupingInProgress(campaignID)
	case err != nil:
		if isPQCode(err, pqForeignKeyViolation) || isPQCode(err, pqInvalidText) {
			return nil, appErrors.NewCampaignNotFound(campaignID)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Runs after the request context may be gone. A failed delete
			// leaves the lease to expire.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, _ = r.DB.ExecContext(ctx,
				`DELETE FROM campaigns.campaign_grouping_locks WHERE campaign_id=$1 AND token=$2`,
				campaignID, token)
		})
	}, nil
}
