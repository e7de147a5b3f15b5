package transaction

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/bulk-delete", h.bulkDelete)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Merchant string               `json:"merchant"`
	Amount   *float64             `json:"amount"`
	Category transaction.Category `json:"category"`
	Items    []transaction.Item   `json:"items"`
	Date     string               `json:"date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req createTransactionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := transaction.ManualEntry{
		Merchant: req.Merchant,
		Amount:   req.Amount,
		Category: req.Category,
		Items:    req.Items,
	}

	if req.Date != "" {
		d, err := respond.ParseDate(req.Date)
		if err != nil {
			respond.Err(w, r, &transaction.ValidationError{Fields: map[string]string{"date": err.Error()}})
			return
		}

		entry.Date = &d
	}

	tx, err := h.svc.CreateFromManualEntry(r.Context(), userID, entry)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	filter := transaction.ListFilter{UserIDs: []uuid.UUID{userID}}
	q := r.URL.Query()

	if s := q.Get("category"); s != "" {
		c := transaction.Category(s)
		if !c.Valid() {
			respond.Error(w, http.StatusBadRequest, "unknown category "+s)
			return
		}

		filter.Category = &c
	}

	for param, dst := range map[string]**time.Time{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		s := q.Get(param)
		if s == "" {
			continue
		}

		t, err := respond.ParseDate(s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, param+": "+err.Error())
			return
		}

		*dst = &t
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owner(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

type updateTransactionRequest struct {
	Merchant *string               `json:"merchant,omitempty"`
	Amount   *float64              `json:"amount,omitempty"`
	Category *transaction.Category `json:"category,omitempty"`
	Items    *[]transaction.Item   `json:"items,omitempty"`
	Date     *string               `json:"date,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req updateTransactionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	if req.Merchant != nil {
		tx.Merchant = *req.Merchant
	}

	if req.Amount != nil {
		tx.Amount = *req.Amount
	}

	if req.Category != nil {
		tx.Category = *req.Category
	}

	if req.Items != nil {
		tx.Items = *req.Items
	}

	if req.Date != nil {
		d, err := respond.ParseDate(*req.Date)
		if err != nil {
			respond.Err(w, r, &transaction.ValidationError{Fields: map[string]string{"date": err.Error()}})
			return
		}

		tx.Date = d
	}

	if err := h.svc.Update(r.Context(), tx); err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	TransactionIDs []uuid.UUID `json:"transactionIds"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req bulkDeleteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.svc.DeleteBatch(r.Context(), userID, req.TransactionIDs)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, bulkDeleteResponse{Deleted: deleted})
}

// owner returns the caller and the {id} path parameter, writing the error
// response itself when either is missing.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	return userID, id, true
}
