package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	txHandler "github.com/MrJamesThe3rd/bonsai/internal/http/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/archive"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/vision"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

const formField = "receipt"

type Handler struct {
	analyzer  vision.Analyzer
	archive   archive.Store
	txs       *transaction.Service
	maxUpload int64
}

func NewHandler(analyzer vision.Analyzer, store archive.Store, txs *transaction.Service, maxUpload int64) *Handler {
	return &Handler{analyzer: analyzer, archive: store, txs: txs, maxUpload: maxUpload}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/analyze", h.analyze)
	r.Post("/", h.upload)
	r.Post("/confirm", h.confirm)
}

type receiptResponse struct {
	Transaction txHandler.Response `json:"transaction"`
	Receipt     *receipt.Draft     `json:"receipt"`
}

// analyze reads the receipt without saving anything so the client can
// review the draft first.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	img, mimeType, ok := h.readImage(w, r)
	if !ok {
		return
	}

	draft, err := h.read(r.Context(), img, mimeType)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, draft)
}

// upload reads the receipt and either attaches it to the transaction named
// by the transactionId form field or records a new transaction.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	img, mimeType, ok := h.readImage(w, r)
	if !ok {
		return
	}

	target, date, err := targetFromForm(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.read(r.Context(), img, mimeType)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	tx, status, err := h.save(r.Context(), userID, target, date, draft)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	h.archiveImage(r.Context(), tx, img, mimeType)

	respond.JSON(w, status, receiptResponse{Transaction: txHandler.ToResponse(tx), Receipt: draft})
}

type confirmRequest struct {
	Receipt       json.RawMessage `json:"receipt"`
	TransactionID *uuid.UUID      `json:"transactionId"`
	Date          string          `json:"date"`
}

// confirm saves a draft the client already reviewed. The draft goes through
// the normalizer again since it came back from outside.
func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
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

	var date *time.Time

	if req.Date != "" {
		d, err := respond.ParseDate(req.Date)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		date = &d
	}

	draft, err := receipt.Normalize(string(req.Receipt))
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	tx, status, err := h.save(r.Context(), userID, req.TransactionID, date, draft)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, status, receiptResponse{Transaction: txHandler.ToResponse(tx), Receipt: draft})
}

func (h *Handler) read(ctx context.Context, img []byte, mimeType string) (*receipt.Draft, error) {
	raw, err := h.analyzer.Analyze(ctx, img, mimeType)
	if err != nil {
		return nil, fmt.Errorf("analyzing receipt: %w", err)
	}

	return receipt.Normalize(raw)
}

func (h *Handler) save(
	ctx context.Context, userID uuid.UUID, target *uuid.UUID, date *time.Time, draft *receipt.Draft,
) (*transaction.Transaction, int, error) {
	if target != nil {
		tx, err := h.txs.AttachReceipt(ctx, userID, *target, draft)
		return tx, http.StatusOK, err
	}

	tx, err := h.txs.CreateFromReceipt(ctx, userID, draft, date)

	return tx, http.StatusCreated, err
}

// archiveImage keeps the original image. The transaction is already saved,
// so a failure here is only logged.
func (h *Handler) archiveImage(ctx context.Context, tx *transaction.Transaction, img []byte, mimeType string) {
	url, err := h.archive.Put(ctx, tx.UserID, img, mimeType)
	if err != nil {
		slog.Error("failed to archive receipt image", "transaction_id", tx.ID, "error", err)
		return
	}

	if url == "" {
		return
	}

	if err := h.txs.AttachReceiptImage(ctx, tx.ID, url); err != nil {
		slog.Error("failed to link receipt image", "transaction_id", tx.ID, "error", err)
		return
	}

	tx.ReceiptURL = url
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respond.Error(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return nil, "", false
	}

	file, header, err := r.FormFile(formField)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "missing receipt file")
		return nil, "", false
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "failed to read receipt file")
		return nil, "", false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(img)
	}

	if !strings.HasPrefix(mimeType, "image/") {
		respond.Error(w, http.StatusBadRequest, "receipt must be an image")
		return nil, "", false
	}

	return img, mimeType, true
}

func targetFromForm(r *http.Request) (*uuid.UUID, *time.Time, error) {
	var (
		target *uuid.UUID
		date   *time.Time
	)

	if s := r.FormValue("transactionId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, nil, errors.New("invalid transactionId")
		}

		target = &id
	}

	if s := r.FormValue("date"); s != "" {
		d, err := respond.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}

		date = &d
	}

	return target, date, nil
}
