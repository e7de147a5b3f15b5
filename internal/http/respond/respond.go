// Package respond writes JSON bodies and maps domain errors to statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/company"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/matching"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/vision"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

// ReceiptRetryMessage is shown when a receipt could not be read.
const ReceiptRetryMessage = "could not read receipt, please retry"

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Err writes the status matching err. Unknown errors are logged and
// reported as a 500 without their message.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var (
		parseErr *receipt.ParseError
		txErr    *transaction.ValidationError
		userErr  *user.ValidationError
	)

	switch {
	case errors.As(err, &parseErr):
		Error(w, http.StatusUnprocessableEntity, ReceiptRetryMessage)
	case errors.As(err, &txErr):
		JSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid transaction", Fields: txErr.Fields})
	case errors.As(err, &userErr):
		JSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid user", Fields: userErr.Fields})
	case errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, company.ErrNotFound),
		errors.Is(err, user.ErrCompanyNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, company.ErrNotMember):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, user.ErrEmailTaken), errors.Is(err, company.ErrNameTaken):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrNoIdentity):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, emissions.ErrInvalidTimeRange),
		errors.Is(err, emissions.ErrInvalidBaseline),
		errors.Is(err, company.ErrNameEmpty),
		errors.Is(err, matching.ErrEmptyPattern),
		errors.Is(err, matching.ErrInvalidCategory),
		errors.Is(err, importer.ErrUnknownBank),
		errors.Is(err, importer.ErrUnreadable):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vision.ErrDisabled):
		Error(w, http.StatusServiceUnavailable, "receipt analysis is not configured")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
