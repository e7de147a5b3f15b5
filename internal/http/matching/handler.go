package matching

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/matching"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	Merchant string               `json:"merchant"`
	Category transaction.Category `json:"category"`
	Matched  bool                 `json:"matched"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	merchant := r.URL.Query().Get("merchant")
	if merchant == "" {
		respond.Error(w, http.StatusBadRequest, "merchant query parameter is required")
		return
	}

	c, err := h.svc.Suggest(r.Context(), merchant)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	resp := suggestResponse{Merchant: merchant, Category: c, Matched: c != ""}
	if !resp.Matched {
		resp.Category = transaction.CategoryOther
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.Mappings(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	if mappings == nil {
		mappings = []*matching.Mapping{}
	}

	respond.JSON(w, http.StatusOK, mappings)
}

type learnRequest struct {
	Pattern  string               `json:"pattern"`
	Category transaction.Category `json:"category"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.svc.Learn(r.Context(), req.Pattern, req.Category)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, m)
}
