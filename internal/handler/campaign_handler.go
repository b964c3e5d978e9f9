// internal/handler/campaign_handler.go
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/phishing-campaigns/internal/service"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"
)

// CampaignHandler serves the read side of the campaign API.
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Logger: logger}
}

// TenantFrom returns the tenant query parameter, falling back to the X-Tenant-ID header.
func TenantFrom(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("tenant_id")); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get(HeaderTenantID))
}

// GetCampaignHandler returns a single campaign by ID
func (h *CampaignHandler) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteData(w, http.StatusOK, c)
}

// ListCampaignsHandler returns the tenant's campaigns, newest first
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListCampaigns(r.Context(), TenantFrom(r))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteData(w, http.StatusOK, campaigns)
}

func (h *CampaignHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListGroups(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteData(w, http.StatusOK, groups)
}

func (h *CampaignHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Service.ListTemplates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteData(w, http.StatusOK, assignments)
}

// GetScheduleHandler answers with data omitted when no schedule is defined yet.
func (h *CampaignHandler) GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	if view == nil {
		WriteMessage(w, http.StatusOK, "no schedule defined", nil)
		return
	}
	WriteData(w, http.StatusOK, view)
}
