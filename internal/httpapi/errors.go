package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, gameerr.ErrUnknownItem), errors.Is(err, gameerr.ErrUnknownTier):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gameerr.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, gameerr.ErrValidation):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, gameerr.ErrConcurrentRound):
		return http.StatusConflict, "round_conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
