package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bonsai/internal/company"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/vision"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantFields map[string]string
	}{
		{
			name:       "ParseError",
			err:        fmt.Errorf("analyzing: %w", &receipt.ParseError{Err: receipt.ErrNoJSON}),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  respond.ReceiptRetryMessage,
		},
		{
			name:       "TransactionValidation",
			err:        &transaction.ValidationError{Fields: map[string]string{"amount": "amount is required"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid transaction",
			wantFields: map[string]string{"amount": "amount is required"},
		},
		{name: "NotFound", err: fmt.Errorf("get: %w", company.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "Conflict", err: user.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "NotMember", err: company.ErrNotMember, wantStatus: http.StatusForbidden},
		{name: "BadTimeRange", err: emissions.ErrInvalidTimeRange, wantStatus: http.StatusBadRequest},
		{name: "VisionDisabled", err: vision.ErrDisabled, wantStatus: http.StatusServiceUnavailable},
		{name: "UnreadableImport", err: fmt.Errorf("%w: cgd: %w", importer.ErrUnreadable, errors.New("bad row")), wantStatus: http.StatusBadRequest},
		{name: "Unknown", err: errors.New("pq: connection reset"), wantStatus: http.StatusInternalServerError, wantError: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Err(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}

			assert.Equal(t, tt.wantFields, body.Fields)
		})
	}
}

func TestPeriodOf(t *testing.T) {
	tr, b, err := respond.PeriodOf("", "", emissions.FixedAverage)
	require.NoError(t, err)
	assert.Equal(t, emissions.SixMonths, tr)
	assert.Equal(t, emissions.FixedAverage, b)

	tr, b, err = respond.PeriodOf("1y", "spend", emissions.FixedAverage)
	require.NoError(t, err)
	assert.Equal(t, emissions.OneYear, tr)
	assert.Equal(t, emissions.SpendProportional, b)

	_, _, err = respond.PeriodOf("2w", "", emissions.FixedAverage)
	assert.ErrorIs(t, err, emissions.ErrInvalidTimeRange)

	_, _, err = respond.PeriodOf("1m", "median", emissions.FixedAverage)
	assert.ErrorIs(t, err, emissions.ErrInvalidBaseline)
}

func TestParseDate(t *testing.T) {
	d, err := respond.ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Day())

	_, err = respond.ParseDate("2024-03-05T10:00:00Z")
	require.NoError(t, err)

	_, err = respond.ParseDate("05/03/2024")
	assert.Error(t, err)
}
