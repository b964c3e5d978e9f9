package model

import (
	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
)

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusRunning   CampaignStatus = "running"
	StatusPaused    CampaignStatus = "paused"
	StatusFinished  CampaignStatus = "finished"
	StatusCancelled CampaignStatus = "cancelled"
)

func (s CampaignStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s CampaignStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// transitions lists the edges of the campaign lifecycle. scheduled -> scheduled
// is a re-schedule.
var transitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:     {StatusScheduled, StatusFinished, StatusCancelled},
	StatusScheduled: {StatusScheduled, StatusRunning, StatusFinished, StatusCancelled},
	StatusRunning:   {StatusPaused, StatusFinished, StatusCancelled},
	StatusPaused:    {StatusFinished, StatusCancelled},
	StatusFinished:  nil,
	StatusCancelled: nil,
}

// CheckTransition returns nil when from -> to is an edge of the lifecycle.
// Resuming a paused campaign and leaving a terminal state are known but
// undefined moves and report ErrNotSupported; everything else is
// ErrInvalidTransition.
func CheckTransition(from, to CampaignStatus) error {
	if from.Terminal() {
		return appErrors.NewNotSupported("transition out of " + string(from))
	}
	if from == StatusPaused && to == StatusRunning {
		return appErrors.NewNotSupported("resume of paused campaign")
	}
	allowed, ok := transitions[from]
	if !ok || !to.Valid() {
		return appErrors.NewInvalidTransition(string(from), string(to))
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return appErrors.NewInvalidTransition(string(from), string(to))
}
