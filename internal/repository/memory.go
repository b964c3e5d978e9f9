package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
)

// MemoryCampaignRepository is an in-process CampaignRepositoryInterface with
// the same replace, upsert and locking semantics as the Postgres one. Values
// are copied in and out.
type MemoryCampaignRepository struct {
	mu           sync.RWMutex
	campaigns    map[string]*model.Campaign
	groups       map[string][]*model.CampaignGroup       // by campaign
	members      map[string][]*model.CampaignGroupMember // by campaign
	participants map[string][]string
	templates    map[string]*model.CampaignTemplateAssignment // by Key()
	schedules    map[string]*model.CampaignSchedule           // by campaign
	locked       map[string]bool
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{
		campaigns:    make(map[string]*model.Campaign),
		groups:       make(map[string][]*model.CampaignGroup),
		members:      make(map[string][]*model.CampaignGroupMember),
		participants: make(map[string][]string),
		templates:    make(map[string]*model.CampaignTemplateAssignment),
		schedules:    make(map[string]*model.CampaignSchedule),
		locked:       make(map[string]bool),
	}
}

func copyCampaign(c *model.Campaign) *model.Campaign {
	out := *c
	return &out
}

func (r *MemoryCampaignRepository) Create(_ context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	r.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (r *MemoryCampaignRepository) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return copyCampaign(c), nil
}

func (r *MemoryCampaignRepository) ListByTenant(_ context.Context, tenantID string) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Campaign{}
	for _, c := range r.campaigns {
		if c.TenantID == tenantID {
			out = append(out, copyCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryCampaignRepository) Update(_ context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cur.Name = c.Name
	cur.Description = c.Description
	cur.StartAt = c.StartAt
	cur.EndAt = c.EndAt
	cur.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *MemoryCampaignRepository) UpdateStatus(_ context.Context, id string, status model.CampaignStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	cur.Status = status
	cur.UpdatedAt = at
	return nil
}

// ====================== Groups ======================

func (r *MemoryCampaignRepository) ReplaceGroups(_ context.Context, campaignID string, groups []*model.CampaignGroup, members []*model.CampaignGroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[campaignID]; !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}

	for key, a := range r.templates {
		if a.CampaignID == campaignID && a.GroupID != nil {
			delete(r.templates, key)
		}
	}

	gs := make([]*model.CampaignGroup, len(groups))
	for i, g := range groups {
		cp := *g
		cp.CampaignID = campaignID
		gs[i] = &cp
	}
	ms := make([]*model.CampaignGroupMember, len(members))
	for i, m := range members {
		cp := *m
		ms[i] = &cp
	}
	r.groups[campaignID] = gs
	r.members[campaignID] = ms
	return nil
}

func (r *MemoryCampaignRepository) ListGroups(_ context.Context, campaignID string) ([]*model.CampaignGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.CampaignGroup, 0, len(r.groups[campaignID]))
	for _, g := range r.groups[campaignID] {
		cp := *g
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *MemoryCampaignRepository) ListGroupMembers(_ context.Context, campaignID string) ([]*model.CampaignGroupMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.CampaignGroupMember, 0, len(r.members[campaignID]))
	for _, m := range r.members[campaignID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryCampaignRepository) LockGrouping(_ context.Context, campaignID string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked[campaignID] {
		return nil, appErrors.NewGroupingInProgress(campaignID)
	}
	r.locked[campaignID] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.locked, campaignID)
			r.mu.Unlock()
		})
	}, nil
}

// ====================== Participants ======================

func (r *MemoryCampaignRepository) ReplaceParticipants(_ context.Context, campaignID string, userIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[campaignID]; !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	seen := make(map[string]bool, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	r.participants[campaignID] = ids
	return nil
}

func (r *MemoryCampaignRepository) ListParticipants(_ context.Context, campaignID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.participants[campaignID]...), nil
}

// ====================== Templates ======================

func (r *MemoryCampaignRepository) UpsertTemplateAssignments(_ context.Context, assignments []*model.CampaignTemplateAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range assignments {
		if _, ok := r.campaigns[a.CampaignID]; !ok {
			return appErrors.NewCampaignNotFound(a.CampaignID)
		}
		if a.GroupID != nil && !r.hasGroup(a.CampaignID, *a.GroupID) {
			return appErrors.NewGroupNotFound(*a.GroupID, a.CampaignID)
		}
	}

	for _, a := range assignments {
		if cur, ok := r.templates[a.Key()]; ok {
			a.ID = cur.ID
		}
		cp := *a
		r.templates[a.Key()] = &cp
	}
	return nil
}

func (r *MemoryCampaignRepository) hasGroup(campaignID, groupID string) bool {
	for _, g := range r.groups[campaignID] {
		if g.ID == groupID {
			return true
		}
	}
	return false
}

func (r *MemoryCampaignRepository) ListTemplateAssignments(_ context.Context, campaignID string) ([]*model.CampaignTemplateAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	position := map[string]int{}
	for _, g := range r.groups[campaignID] {
		position[g.ID] = g.Position
	}

	out := []*model.CampaignTemplateAssignment{}
	for _, a := range r.templates {
		if a.CampaignID == campaignID {
			cp := *a
			out = append(out, &cp)
		}
	}
	// campaign-wide first, then by group position
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID == nil || out[j].GroupID == nil {
			return out[i].GroupID == nil && out[j].GroupID != nil
		}
		return position[*out[i].GroupID] < position[*out[j].GroupID]
	})
	return out, nil
}

// ====================== Schedule ======================

func (r *MemoryCampaignRepository) UpsertSchedule(_ context.Context, s *model.CampaignSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[s.CampaignID]; !ok {
		return appErrors.NewCampaignNotFound(s.CampaignID)
	}
	if cur, ok := r.schedules[s.CampaignID]; ok {
		s.ID = cur.ID
		s.CreatedAt = cur.CreatedAt
	}
	cp := *s
	cp.CronJSON = append(json.RawMessage{}, s.CronJSON...)
	r.schedules[s.CampaignID] = &cp
	return nil
}

func (r *MemoryCampaignRepository) GetSchedule(_ context.Context, campaignID string) (*model.CampaignSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur, ok := r.schedules[campaignID]
	if !ok {
		return nil, nil
	}
	cp := *cur
	cp.CronJSON = append(json.RawMessage{}, cur.CronJSON...)
	return &cp, nil
}

// MemoryUserDirectory serves users registered with Add, in insertion order.
type MemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[string][]model.DirectoryUser // by tenant
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{users: make(map[string][]model.DirectoryUser)}
}

func (d *MemoryUserDirectory) Add(tenantID string, users ...model.DirectoryUser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[tenantID] = append(d.users[tenantID], users...)
}

// DirectoryEntry is one user of a directory seed file. A missing active
// flag means active.
type DirectoryEntry struct {
	TenantID     string  `json:"tenant_id"`
	UserID       string  `json:"user_id"`
	DepartmentID *string `json:"department_id,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// LoadJSON adds the active users of a JSON array of DirectoryEntry and
// returns how many were added. Nothing is added when any entry is invalid.
func (d *MemoryUserDirectory) LoadJSON(r io.Reader) (int, error) {
	var entries []DirectoryEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode user directory: %w", err)
	}

	byTenant := make(map[string][]model.DirectoryUser)
	var tenants []string
	added := 0
	for i, e := range entries {
		tenantID, userID := strings.TrimSpace(e.TenantID), strings.TrimSpace(e.UserID)
		if tenantID == "" || userID == "" {
			return 0, fmt.Errorf("user directory entry %d: tenant_id and user_id are required", i)
		}
		if e.Active != nil && !*e.Active {
			continue
		}
		if _, ok := byTenant[tenantID]; !ok {
			tenants = append(tenants, tenantID)
		}
		byTenant[tenantID] = append(byTenant[tenantID], model.DirectoryUser{UserID: userID, DepartmentID: e.DepartmentID})
		added++
	}

	for _, tenantID := range tenants {
		d.Add(tenantID, byTenant[tenantID]...)
	}
	return added, nil
}

// LoadMemoryUserDirectory builds a directory from a seed file written as
// described by LoadJSON.
func LoadMemoryUserDirectory(path string) (*MemoryUserDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user directory: %w", err)
	}
	defer f.Close()

	d := NewMemoryUserDirectory()
	if _, err := d.LoadJSON(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *MemoryUserDirectory) ListByTenant(_ context.Context, tenantID string) ([]model.DirectoryUser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.DirectoryUser{}, d.users[tenantID]...), nil
}

func (d *MemoryUserDirectory) ConfirmMembership(_ context.Context, tenantID string, userIDs []string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	known := make(map[string]bool, len(d.users[tenantID]))
	for _, u := range d.users[tenantID] {
		known[u.UserID] = true
	}
	var unknown []string
	for _, id := range userIDs {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}

var (
	_ CampaignRepositoryInterface = (*MemoryCampaignRepository)(nil)
	_ UserDirectoryInterface      = (*MemoryUserDirectory)(nil)
)
