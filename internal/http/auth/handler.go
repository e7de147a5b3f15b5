package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	userHandler "github.com/MrJamesThe3rd/bonsai/internal/http/user"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

type Handler struct {
	users  *user.Service
	issuer *auth.Issuer
}

func NewHandler(users *user.Service, issuer *auth.Issuer) *Handler {
	return &Handler{users: users, issuer: issuer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type registerRequest struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	CompanyID *uuid.UUID `json:"companyId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string               `json:"token"`
	User  userHandler.Response `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.Register(r.Context(), user.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	h.issue(w, r, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	h.issue(w, r, http.StatusOK, u)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, u *user.User) {
	token, err := h.issuer.Issue(u.ID, u.Email)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, status, tokenResponse{Token: token, User: userHandler.ToResponse(u)})
}
