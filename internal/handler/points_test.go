package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buttoners/staffroom/internal/ledger"
)

func TestWriteLedgerErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ledger.ErrInvalidCart, http.StatusBadRequest},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrSelfGift, http.StatusBadRequest},
		{ledger.ErrNotAPurchase, http.StatusBadRequest},
		{ledger.ErrEmptyRoster, http.StatusBadRequest},
		{ledger.ErrInsufficientFunds, http.StatusBadRequest},
		{ledger.ErrLimitExceeded, http.StatusBadRequest},
		{ledger.ErrAlreadyRefunded, http.StatusBadRequest},
		{ledger.ErrRefundExpired, http.StatusBadRequest},
		{ledger.ErrItemNotFound, http.StatusNotFound},
		{ledger.ErrUserNotFound, http.StatusNotFound},
		{ledger.ErrTransactionNotFound, http.StatusNotFound},
		{ledger.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeLedgerError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
