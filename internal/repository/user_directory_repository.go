package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// UserDirectoryRepository reads authn.users.
type UserDirectoryRepository struct {
	DB *sql.DB
}

// ListByTenant fetches the active users of a tenant, oldest first.
func (r *UserDirectoryRepository) ListByTenant(ctx context.Context, tenantID string) ([]model.DirectoryUser, error) {
	query := `
		SELECT id, department_id
		FROM authn.users
		WHERE tenant_id::text = $1 AND active
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.DirectoryUser{}
	for rows.Next() {
		var u model.DirectoryUser
		if err := rows.Scan(&u.UserID, &u.DepartmentID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ConfirmMembership checks against the same active users ListByTenant returns.
func (r *UserDirectoryRepository) ConfirmMembership(ctx context.Context, tenantID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id::text
		FROM authn.users
		WHERE tenant_id::text = $1 AND active AND id::text = ANY($2)
	`
	rows, err := r.DB.QueryContext(ctx, query, tenantID, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(userIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unknown []string
	for _, id := range userIDs {
		if !found[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}

var _ UserDirectoryInterface = (*UserDirectoryRepository)(nil)
