package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// WriteError maps err to a status code. Messages of unexpected errors are
// logged but not sent to the client.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && log != nil {
		log.Error("Request failed", zap.Error(err))
	}
	if status == http.StatusInternalServerError {
		var conservation *appErrors.ErrConservation
		if !errors.As(err, &conservation) {
			msg = "internal server error"
		}
	}
	WriteJSON(w, status, Envelope{Success: false, Message: msg})
}

func StatusFor(err error) int {
	var (
		validation   *appErrors.ErrValidation
		campaignMiss *appErrors.ErrCampaignNotFound
		groupMiss    *appErrors.ErrGroupNotFound
		transition   *appErrors.ErrInvalidTransition
		inProgress   *appErrors.ErrGroupingInProgress
		notSupported *appErrors.ErrNotSupported
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &campaignMiss), errors.As(err, &groupMiss):
		return http.StatusNotFound
	case errors.As(err, &transition), errors.As(err, &inProgress):
		return http.StatusConflict
	case errors.As(err, &notSupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// DecodeBody decodes a JSON request body into dst. An empty body leaves dst
// untouched.
func DecodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return appErrors.NewValidation("", "invalid body: "+err.Error())
}
