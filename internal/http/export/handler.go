package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/export"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
)

type Handler struct {
	svc             *export.Service
	defaultBaseline emissions.Baseline
}

func NewHandler(svc *export.Service, defaultBaseline emissions.Baseline) *Handler {
	return &Handler{svc: svc, defaultBaseline: defaultBaseline}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.summary)
	r.Post("/download", h.download)
}

type exportRequest struct {
	TimeRange string `json:"timeRange"`
	Baseline  string `json:"baseline"`
}

type summaryResponse struct {
	Summary          string                 `json:"summary"`
	TransactionCount int                    `json:"transactionCount"`
	Footprint        *leaderboard.Footprint `json:"footprint"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, summaryResponse{
		Summary:          export.Summary(report),
		TransactionCount: len(report.Transactions),
		Footprint:        report.Footprint,
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, report); err != nil {
		respond.Err(w, r, err)
		return
	}

	filename := fmt.Sprintf("bonsai-footprint-%s-%s.csv",
		report.Footprint.TimeRange, report.Footprint.End.Format("20060102"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*export.Report, bool) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return nil, false
	}

	var req exportRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	tr, b, err := respond.PeriodOf(req.TimeRange, req.Baseline, h.defaultBaseline)
	if err != nil {
		respond.Err(w, r, err)
		return nil, false
	}

	report, err := h.svc.Report(r.Context(), userID, tr, b)
	if err != nil {
		respond.Err(w, r, err)
		return nil, false
	}

	return report, true
}
