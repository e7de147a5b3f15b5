package company

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/company"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
)

type Handler struct {
	companies       *company.Service
	boards          *leaderboard.Service
	defaultBaseline emissions.Baseline
}

func NewHandler(companies *company.Service, boards *leaderboard.Service, defaultBaseline emissions.Baseline) *Handler {
	return &Handler{companies: companies, boards: boards, defaultBaseline: defaultBaseline}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/leaderboard", h.leaderboard)
}

type companyResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Industry    string      `json:"industry,omitempty"`
	MemberIDs   []uuid.UUID `json:"memberIds"`
	MemberCount int         `json:"memberCount"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func toResponse(c *company.Company) companyResponse {
	members := c.MemberIDs
	if members == nil {
		members = []uuid.UUID{}
	}

	return companyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Industry:    c.Industry,
		MemberIDs:   members,
		MemberCount: len(members),
		CreatedAt:   c.CreatedAt,
	}
}

type createCompanyRequest struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.Create(r.Context(), req.Name, req.Industry)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	resp := make([]companyResponse, len(companies))
	for i, c := range companies {
		resp[i] = toResponse(c)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.Get(r.Context(), id)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	callerID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	if err := h.companies.Delete(r.Context(), id, callerID); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// leaderboard answers 200 with the empty-state board for a company without
// members.
func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tr, b, err := respond.Period(r, h.defaultBaseline)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	board, err := h.boards.Build(r.Context(), id, tr, b)
	if err != nil && !errors.Is(err, leaderboard.ErrEmptyCompany) {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, board)
}
