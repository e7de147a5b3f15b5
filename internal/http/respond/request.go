package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
)

// Period reads the timeRange and baseline query parameters. A missing
// baseline falls back to def.
func Period(r *http.Request, def emissions.Baseline) (emissions.TimeRange, emissions.Baseline, error) {
	return PeriodOf(r.URL.Query().Get("timeRange"), r.URL.Query().Get("baseline"), def)
}

func PeriodOf(timeRange, baseline string, def emissions.Baseline) (emissions.TimeRange, emissions.Baseline, error) {
	tr, err := emissions.ParseTimeRange(timeRange)
	if err != nil {
		return "", "", err
	}

	if baseline == "" {
		return tr, def, nil
	}

	b, err := emissions.ParseBaseline(baseline)
	if err != nil {
		return "", "", err
	}

	return tr, b, nil
}

// IDParam parses the named chi URL parameter as a UUID.
func IDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

// Decode reads a JSON body, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

// ParseDate accepts a plain date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}

	return t, nil
}
