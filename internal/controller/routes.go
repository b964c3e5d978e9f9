package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/phishing-campaigns/internal/handler"
)

// NewRouter mounts the campaign API and the health check.
func NewRouter(ctrl *CampaignController, h *handler.CampaignHandler, health http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(logger))

	r.Method(http.MethodGet, "/health", health)

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", ctrl.CreateCampaign)
		r.Get("/", h.ListCampaignsHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCampaignHandler)
			r.Patch("/", ctrl.UpdateCampaign)

			r.Post("/participants", ctrl.AttachParticipants)
			r.Post("/auto-group", ctrl.AutoGroup)
			r.Get("/groups", h.ListGroupsHandler)

			r.Post("/templates/auto", ctrl.AssignTemplatesAuto)
			r.Post("/templates/manual", ctrl.AssignTemplatesManual)
			r.Get("/templates", h.ListTemplatesHandler)

			r.Post("/schedule", ctrl.DefineSchedule)
			r.Get("/schedule", h.GetScheduleHandler)

			r.Post("/launch", ctrl.Launch)
			r.Post("/pause", ctrl.Pause)
			r.Post("/resume", ctrl.Resume)
			r.Post("/finish", ctrl.Finish)
			r.Post("/cancel", ctrl.Cancel)
		})
	})

	return r
}
