package importcsv

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	txHandler "github.com/MrJamesThe3rd/bonsai/internal/http/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
	maxUpload int64
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service, maxUpload int64) *Handler {
	return &Handler{importSvc: importSvc, txSvc: txSvc, maxUpload: maxUpload}
}

// Routes: POST / previews the entries of a bank export, POST /confirm saves
// the (possibly edited) entries.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type entryDTO struct {
	Merchant string               `json:"merchant"`
	Amount   *float64             `json:"amount"`
	Category transaction.Category `json:"category"`
	Date     *time.Time           `json:"date"`
}

type previewResponse struct {
	Bank    importer.Bank `json:"bank"`
	Entries []entryDTO    `json:"entries"`
}

type confirmRequest struct {
	Entries []entryDTO `json:"entries"`
}

type rejectedEntry struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
}

type importResponse struct {
	Imported     int                  `json:"imported"`
	Transactions []txHandler.Response `json:"transactions"`
	Rejected     []rejectedEntry      `json:"rejected"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respond.Error(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		bank = importer.BankCGD
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	entries, err := h.importSvc.Import(r.Context(), bank, file)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	resp := previewResponse{Bank: bank, Entries: make([]entryDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryDTO{Merchant: e.Merchant, Amount: e.Amount, Category: e.Category, Date: e.Date})
	}

	respond.JSON(w, http.StatusOK, resp)
}

// confirmImport saves every valid entry. Invalid ones are reported by
// index and do not stop the others.
func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req confirmRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := importResponse{
		Transactions: make([]txHandler.Response, 0, len(req.Entries)),
		Rejected:     []rejectedEntry{},
	}

	for i, e := range req.Entries {
		tx, err := h.txSvc.CreateFromManualEntry(r.Context(), userID, transaction.ManualEntry{
			Merchant: e.Merchant,
			Amount:   e.Amount,
			Category: e.Category,
			Date:     e.Date,
		})
		if err != nil {
			var verr *transaction.ValidationError
			if errors.As(err, &verr) {
				resp.Rejected = append(resp.Rejected, rejectedEntry{Index: i, Fields: verr.Fields})
				continue
			}

			respond.Err(w, r, err)

			return
		}

		resp.Transactions = append(resp.Transactions, txHandler.ToResponse(tx))
	}

	resp.Imported = len(resp.Transactions)

	respond.JSON(w, http.StatusCreated, resp)
}
