package handler

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Started time.Time
	Now     func() time.Time
}

func NewHealthHandler(started time.Time) *HealthHandler {
	return &HealthHandler{Started: started, Now: time.Now}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := h.Now()
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.Started).Seconds(),
		"timestamp": now.UTC().Format(time.RFC3339Nano),
	})
}
