// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrCampaignNotFound is returned when a campaign lookup misses.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// NewCampaignNotFound is a helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrGroupNotFound is returned when a group does not exist or belongs to another campaign.
type ErrGroupNotFound struct {
	GroupID    string
	CampaignID string
}

func (e *ErrGroupNotFound) Error() string {
	return fmt.Sprintf("group with ID %s not found in campaign %s", e.GroupID, e.CampaignID)
}

func NewGroupNotFound(groupID, campaignID string) error {
	return &ErrGroupNotFound{GroupID: groupID, CampaignID: campaignID}
}

// ErrValidation marks a request the caller has to fix.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// NewUnknownUsers reports user ids that are not members of the tenant.
func NewUnknownUsers(tenantID string, userIDs []string) error {
	return &ErrValidation{
		Field:  "user_ids",
		Reason: fmt.Sprintf("users not in tenant %s: %s", tenantID, strings.Join(userIDs, ", ")),
	}
}

// ErrInvalidTransition is a status change the campaign lifecycle does not allow.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign cannot move from %s to %s", e.From, e.To)
}

func NewInvalidTransition(from, to string) error {
	return &ErrInvalidTransition{From: from, To: to}
}

// ErrNotSupported is an operation that exists in the model but has no defined behavior yet.
type ErrNotSupported struct {
	Operation string
}

func (e *ErrNotSupported) Error() string {
	return fmt.Sprintf("%s is not supported", e.Operation)
}

func NewNotSupported(op string) error {
	return &ErrNotSupported{Operation: op}
}

// ErrConservation means grouping lost or duplicated users.
type ErrConservation struct {
	Expected int
	Got      int
	Detail   string
}

func (e *ErrConservation) Error() string {
	msg := fmt.Sprintf("grouping conservation violated: expected %d members, got %d", e.Expected, e.Got)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func NewConservation(expected, got int, detail string) error {
	return &ErrConservation{Expected: expected, Got: got, Detail: detail}
}

// ErrGroupingInProgress is returned when another auto-group run holds the campaign.
type ErrGroupingInProgress struct {
	CampaignID string
}

func (e *ErrGroupingInProgress) Error() string {
	return fmt.Sprintf("auto-grouping already running for campaign %s", e.CampaignID)
}

func NewGroupingInProgress(id string) error {
	return &ErrGroupingInProgress{CampaignID: id}
}
