package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
)

// leaseConnector serves the statements LockGrouping, its release and
// ListParticipants issue, keeping grouping leases in a map.
type leaseConnector struct {
	mu     sync.Mutex
	leases map[string]string // campaign id -> token
}

func (c *leaseConnector) Connect(context.Context) (driver.Conn, error) { return &leaseConn{c: c}, nil }
func (c *leaseConnector) Driver() driver.Driver                         { return leaseDriver{c} }

type leaseDriver struct{ c *leaseConnector }

func (d leaseDriver) Open(string) (driver.Conn, error) { return &leaseConn{c: d.c}, nil }

type leaseConn struct{ c *leaseConnector }

func (c *leaseConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (c *leaseConn) Close() error                        { return nil }
func (c *leaseConn) Begin() (driver.Tx, error)           { return nil, errors.New("transactions not supported") }

func (c *leaseConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	switch {
	case strings.Contains(query, "INSERT INTO campaigns.campaign_grouping_locks"):
		campaignID, token := args[0].Value.(string), args[1].Value.(string)
		c.c.mu.Lock()
		defer c.c.mu.Unlock()
		if _, held := c.c.leases[campaignID]; held {
			return &stubRows{cols: []string{"token"}}, nil
		}
		c.c.leases[campaignID] = token
		return &stubRows{cols: []string{"token"}, values: [][]driver.Value{{token}}}, nil
	case strings.Contains(query, "FROM campaigns.campaign_participants"):
		return &stubRows{cols: []string{"user_id"}, values: [][]driver.Value{{"u-1"}}}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (c *leaseConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if !strings.Contains(query, "DELETE FROM campaigns.campaign_grouping_locks") {
		return nil, fmt.Errorf("unexpected exec: %s", query)
	}
	campaignID, token := args[0].Value.(string), args[1].Value.(string)
	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	if c.c.leases[campaignID] == token {
		delete(c.c.leases, campaignID)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

type stubRows struct {
	cols   []string
	values [][]driver.Value
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if len(r.values) == 0 {
		return io.EOF
	}
	copy(dest, r.values[0])
	r.values = r.values[1:]
	return nil
}

func TestLockGroupingDoesNotPinAConnection(t *testing.T) {
	conn := sql.OpenDB(&leaseConnector{leases: map[string]string{}})
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	repo := &repository.CampaignRepository{DB: conn}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	unlock, err := repo.LockGrouping(ctx, "c-1")
	require.NoError(t, err)

	// With the lock held, the single pooled connection must still be free.
	ids, err := repo.ListParticipants(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, ids)

	_, err = repo.LockGrouping(ctx, "c-1")
	var busy *appErrors.ErrGroupingInProgress
	assert.ErrorAs(t, err, &busy)

	other, err := repo.LockGrouping(ctx, "c-2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := repo.LockGrouping(ctx, "c-1")
	require.NoError(t, err)
	again()
}
