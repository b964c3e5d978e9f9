package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones for images without /usr/share/zoneinfo

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
)

// cronParser accepts standard 5-field specs, an optional leading seconds
// field and descriptors such as @daily.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ScheduleRequest is the caller's schedule definition. CronJSON is passed
// through to the external scheduler; only its "cron" key is interpreted here.
type ScheduleRequest struct {
	Type     model.ScheduleType `json:"type"`
	CronJSON json.RawMessage    `json:"cron_json,omitempty"`
	Timezone string             `json:"timezone,omitempty"`
}

// ScheduleView is a stored schedule plus its next run, when it has a cron expression.
type ScheduleView struct {
	*model.CampaignSchedule
	NextRun *time.Time `json:"next_run,omitempty"`
}

// ScheduleManager validates and stores the single schedule of a campaign.
type ScheduleManager struct {
	Store repository.ScheduleStore
	Now   func() time.Time
	NewID func() string
}

// Normalize validates req and fills in the defaults ({} and UTC).
func (m *ScheduleManager) Normalize(req ScheduleRequest) (ScheduleRequest, error) {
	if !req.Type.Valid() {
		return req, appErrors.NewValidation("type", "must be one of once, sequential, windowed")
	}

	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = model.DefaultTimezone
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return req, appErrors.NewValidation("timezone", "unknown IANA zone "+req.Timezone)
	}

	raw := bytes.TrimSpace(req.CronJSON)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		req.CronJSON = json.RawMessage("{}")
		return req, nil
	}
	if _, err := cronExpression(raw); err != nil {
		return req, err
	}
	req.CronJSON = append(json.RawMessage{}, raw...)
	return req, nil
}

// Upsert replaces type, cron_json and timezone of the existing schedule, or
// creates one. req must have been normalized.
func (m *ScheduleManager) Upsert(ctx context.Context, campaignID string, req ScheduleRequest) (*model.CampaignSchedule, error) {
	now := m.now()
	s := &model.CampaignSchedule{
		ID:         m.newID(),
		CampaignID: campaignID,
		Type:       req.Type,
		CronJSON:   req.CronJSON,
		Timezone:   req.Timezone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.Store.UpsertSchedule(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// View loads the campaign's schedule. It returns nil, nil when there is none.
func (m *ScheduleManager) View(ctx context.Context, campaignID string) (*ScheduleView, error) {
	s, err := m.Store.GetSchedule(ctx, campaignID)
	if err != nil || s == nil {
		return nil, err
	}
	next, err := NextRun(s, m.now())
	if err != nil {
		return nil, err
	}
	return &ScheduleView{CampaignSchedule: s, NextRun: next}, nil
}

// NextRun returns the first activation after `after` in the schedule's
// zone, or nil when cron_json carries no cron expression.
func NextRun(s *model.CampaignSchedule, after time.Time) (*time.Time, error) {
	spec, err := cronExpression(s.CronJSON)
	if err != nil || spec == "" {
		return nil, err
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, appErrors.NewValidation("timezone", "unknown IANA zone "+s.Timezone)
	}
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, appErrors.NewValidation("cron_json.cron", err.Error())
	}
	next := sched.Next(after.In(loc))
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// cronExpression returns the validated "cron" key of a cron_json object, or
// "" when the key is absent.
func cronExpression(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", appErrors.NewValidation("cron_json", "must be a JSON object")
	}
	field, ok := payload["cron"]
	if !ok {
		return "", nil
	}
	var spec string
	if err := json.Unmarshal(field, &spec); err != nil {
		return "", appErrors.NewValidation("cron_json.cron", "must be a string")
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", appErrors.NewValidation("cron_json.cron", "must not be empty")
	}
	if _, err := cronParser.Parse(spec); err != nil {
		return "", appErrors.NewValidation("cron_json.cron", err.Error())
	}
	return spec, nil
}

func (m *ScheduleManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *ScheduleManager) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}
