package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// Postgres error codes the repository translates.
const (
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

// DefaultGroupingLease is how long LockGrouping holds a campaign when
// GroupingLease is unset.
const DefaultGroupingLease = 2 * time.Minute

type CampaignRepository struct {
	DB            *sql.DB
	GroupingLease time.Duration
}

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

const campaignColumns = `id, tenant_id, name, description, status, strategy, start_at, end_at, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.Status, &c.Strategy,
		&c.StartAt, &c.EndAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	query := `
		INSERT INTO campaigns.campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.TenantID, c.Name, c.Description, c.Status, c.Strategy,
		c.StartAt, c.EndAt, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return err
}

// Update writes the editable fields. tenant_id, status and created_at are left alone.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	query := `
		UPDATE campaigns.campaigns
		SET name=$1, description=$2, start_at=$3, end_at=$4, updated_at=$5
		WHERE id=$6
	`
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.Description, c.StartAt, c.EndAt, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return requireRow(res, c.ID)
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID string, status model.CampaignStatus, at time.Time) error {
	query := `UPDATE campaigns.campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, at, campaignID)
	if err != nil {
		return err
	}
	return requireRow(res, campaignID)
}

func requireRow(res sql.Result, campaignID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns.campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows || isPQCode(err, pqInvalidText) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListByTenant(ctx context.Context, tenantID string) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns.campaigns WHERE tenant_id::text=$1 ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ====================== Participants ======================

func (r *CampaignRepository) ReplaceParticipants(ctx context.Context, campaignID string, userIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns.campaign_participants WHERE campaign_id=$1`, campaignID); err != nil {
		return err
	}
	for i, id := range userIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO campaigns.campaign_participants (campaign_id, user_id, position) VALUES ($1, $2, $3)
			ON CONFLICT (campaign_id, user_id) DO NOTHING`,
			campaignID, id, i)
		if err != nil {
			if isPQCode(err, pqForeignKeyViolation) {
				return appErrors.NewCampaignNotFound(campaignID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *CampaignRepository) ListParticipants(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id FROM campaigns.campaign_participants WHERE campaign_id=$1 ORDER BY position`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
