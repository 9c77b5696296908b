// Package httperr maps domain errors to HTTP status codes and stable error codes.
package httperr

import (
	"errors"
	"net/http"

	"mine_economy/internal/cooldown"
	"mine_economy/internal/domain"
)

type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{domain.ErrCooldown, http.StatusTooManyRequests, "cooldown"},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{domain.ErrUnknownField, http.StatusBadRequest, "unknown_field"},
	{domain.ErrUnknownCurrency, http.StatusBadRequest, "unknown_currency"},
	{domain.ErrSelfTransfer, http.StatusBadRequest, "self_transfer"},
	{domain.ErrSameParticipant, http.StatusBadRequest, "same_participant"},
	{domain.ErrInvalidGameAction, http.StatusBadRequest, "invalid_action"},
	{domain.ErrUnknownGearKind, http.StatusNotFound, "unknown_gear"},
	{domain.ErrUnknownCase, http.StatusNotFound, "unknown_case"},
	{domain.ErrUnknownAction, http.StatusNotFound, "unknown_action"},
	{domain.ErrUnknownGameKind, http.StatusNotFound, "unknown_game"},
	{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{domain.ErrNotAParticipant, http.StatusForbidden, "not_a_participant"},
	{domain.ErrSessionExpired, http.StatusGone, "session_expired"},
	{domain.ErrSessionResolved, http.StatusConflict, "session_resolved"},
	{domain.ErrSessionExists, http.StatusConflict, "session_exists"},
	{domain.ErrAlreadyActed, http.StatusConflict, "already_acted"},
	{domain.ErrMaxLevel, http.StatusConflict, "max_level"},
}

// Status returns the HTTP status and error code for err. Anything not
// recognised is an internal error.
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// Body is the JSON error envelope. Internal errors hide their message.
func Body(err error) map[string]any {
	status, code := Status(err)
	body := map[string]any{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}

	var ce *domain.CooldownError
	if errors.As(err, &ce) {
		body["retry_after"] = cooldown.Seconds(ce.Remaining)
	}
	var fe *domain.FundsError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
		body["required"] = fe.Required
		body["available"] = fe.Available
	}
	return body
}
