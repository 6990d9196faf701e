package registration_api

import (
	"errors"
	"net/http"
	"testing"

	"eventhub/internal/registration"
	"eventhub/internal/selection"
)

func TestStatusForLedgerError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{registration.ErrEventNotFound, http.StatusNotFound},
		{registration.ErrOrderNotFound, http.StatusNotFound},
		{registration.ErrEventFull, http.StatusConflict},
		{registration.ErrTierUnavailable, http.StatusConflict},
		{registration.ErrDuplicateRegistration, http.StatusConflict},
		{registration.ErrRegistrationInProgress, http.StatusConflict},
		{registration.ErrOrderNotPayable, http.StatusConflict},
		{registration.ErrPaymentVerificationFailed, http.StatusPaymentRequired},
		{registration.ErrEventNotOpen, http.StatusBadRequest},
		{registration.ErrFreeEvent, http.StatusBadRequest},
		{registration.ErrPaidEvent, http.StatusBadRequest},
		{selection.ErrExceedsPerUserLimit, http.StatusBadRequest},
		{selection.ErrUnknownTier, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusForLedgerError(tc.err); got != tc.want {
			t.Errorf("statusForLedgerError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
