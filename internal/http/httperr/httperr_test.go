package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"mine_economy/internal/domain"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{&domain.CooldownError{Action: "mine", Remaining: time.Minute}, http.StatusTooManyRequests, "cooldown"},
		{&domain.FundsError{Field: domain.FieldGold, Required: 5}, http.StatusPaymentRequired, "insufficient_funds"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidAmount), http.StatusBadRequest, "invalid_amount"},
		{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{domain.ErrNotAParticipant, http.StatusForbidden, "not_a_participant"},
		{domain.ErrSessionExpired, http.StatusGone, "session_expired"},
		{domain.ErrSessionResolved, http.StatusConflict, "session_resolved"},
		{domain.ErrMaxLevel, http.StatusConflict, "max_level"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := Status(tt.err)
		if status != tt.want || code != tt.code {
			t.Errorf("Status(%v) = %d %s, want %d %s", tt.err, status, code, tt.want, tt.code)
		}
	}
}

func TestBody(t *testing.T) {
	body := Body(&domain.CooldownError{Action: "work", Remaining: 1500 * time.Millisecond})
	if body["retry_after"] != int64(2) || body["code"] != "cooldown" {
		t.Fatalf("cooldown body = %v", body)
	}

	body = Body(&domain.FundsError{Field: domain.FieldCrystals, Required: 50, Available: 10})
	if body["required"] != int64(50) || body["available"] != int64(10) {
		t.Fatalf("funds body = %v", body)
	}

	body = Body(errors.New("connection reset by peer"))
	if body["error"] != "internal error" {
		t.Fatalf("internal body leaks %v", body["error"])
	}
}
