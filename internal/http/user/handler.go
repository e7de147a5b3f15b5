package user

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

type Handler struct {
	users           *user.Service
	footprints      *leaderboard.Service
	defaultBaseline emissions.Baseline
}

func NewHandler(users *user.Service, footprints *leaderboard.Service, defaultBaseline emissions.Baseline) *Handler {
	return &Handler{users: users, footprints: footprints, defaultBaseline: defaultBaseline}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.changeCompany)
	r.Delete("/me", h.delete)
	r.Get("/me/footprint", h.footprint)
}

type Response struct {
	ID               uuid.UUID  `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	CompanyID        *uuid.UUID `json:"companyId"`
	TransactionCount int        `json:"transactionCount"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func ToResponse(u *user.User) Response {
	return Response{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		CompanyID:        u.CompanyID,
		TransactionCount: len(u.TransactionIDs),
		CreatedAt:        u.CreatedAt,
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	u, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(u))
}

// changeCompanyRequest moves the caller to CompanyID; null leaves the
// current company.
type changeCompanyRequest struct {
	CompanyID *uuid.UUID `json:"companyId"`
}

func (h *Handler) changeCompany(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req changeCompanyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.ChangeCompany(r.Context(), userID, req.CompanyID)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(u))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) footprint(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	tr, b, err := respond.Period(r, h.defaultBaseline)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	fp, err := h.footprints.Footprint(r.Context(), userID, tr, b)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, fp)
}
