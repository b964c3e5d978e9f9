// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/phishing-campaigns/internal/handler"
	"github.com/unclebandit/phishing-campaigns/internal/model"
	"github.com/unclebandit/phishing-campaigns/internal/service"
)

// CampaignController serves the write side of the campaign API.
type CampaignController struct {
	CampaignService *service.CampaignService
	Logger          *zap.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	if strings.TrimSpace(body.TenantID) == "" {
		body.TenantID = r.Header.Get(handler.HeaderTenantID)
	}
	if strings.TrimSpace(body.CreatedBy) == "" {
		body.CreatedBy = r.Header.Get(handler.HeaderUserID)
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteData(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateCampaignInput
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteData(w, http.StatusOK, campaign)
}

func (c *CampaignController) AttachParticipants(w http.ResponseWriter, r *http.Request) {
	var body service.AttachParticipantsInput
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := c.CampaignService.AttachParticipants(r.Context(), id, body, r.Header.Get(handler.HeaderTenantID)); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteMessage(w, http.StatusOK, "participants validated, they will be used for grouping", nil)
}

func (c *CampaignController) AutoGroup(w http.ResponseWriter, r *http.Request) {
	var body service.AutoGroupInput
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}

	summary, err := c.CampaignService.AutoGroup(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteMessage(w, http.StatusOK, "groups generated", summary)
}

func (c *CampaignController) AssignTemplatesAuto(w http.ResponseWriter, r *http.Request) {
	a, err := c.CampaignService.AssignTemplatesAuto(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteMessage(w, http.StatusOK, "templates assigned automatically", a)
}

func (c *CampaignController) AssignTemplatesManual(w http.ResponseWriter, r *http.Request) {
	var body service.ManualAssignment
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}

	a, err := c.CampaignService.AssignTemplatesManual(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteMessage(w, http.StatusOK, "templates assigned manually", a)
}

func (c *CampaignController) DefineSchedule(w http.ResponseWriter, r *http.Request) {
	var body service.ScheduleRequest
	if err := handler.DecodeBody(r, &body); err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}

	s, err := c.CampaignService.DefineSchedule(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, c.Logger, err)
		return
	}
	handler.WriteMessage(w, http.StatusOK, "schedule defined and campaign scheduled", s)
}

type statusAction func(ctx context.Context, campaignID string) (*model.Campaign, error)

// transition adapts a lifecycle action to an HTTP handler.
func (c *CampaignController) transition(action statusAction, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign, err := action(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handler.WriteError(w, c.Logger, err)
			return
		}
		handler.WriteMessage(w, http.StatusOK, message, campaign)
	}
}

func (c *CampaignController) Launch(w http.ResponseWriter, r *http.Request) {
	c.transition(c.CampaignService.Launch, "campaign launched")(w, r)
}

func (c *CampaignController) Pause(w http.ResponseWriter, r *http.Request) {
	c.transition(c.CampaignService.Pause, "campaign paused")(w, r)
}

func (c *CampaignController) Resume(w http.ResponseWriter, r *http.Request) {
	c.transition(c.CampaignService.Resume, "campaign resumed")(w, r)
}

func (c *CampaignController) Finish(w http.ResponseWriter, r *http.Request) {
	c.transition(c.CampaignService.Finish, "campaign finished")(w, r)
}

func (c *CampaignController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.transition(c.CampaignService.Cancel, "campaign cancelled")(w, r)
}
