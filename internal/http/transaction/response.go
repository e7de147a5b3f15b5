package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Response struct {
	ID              uuid.UUID                  `json:"id"`
	UserID          uuid.UUID                  `json:"userId"`
	Merchant        string                     `json:"merchant"`
	Amount          float64                    `json:"amount"`
	Category        transaction.Category       `json:"category"`
	RollupCategory  transaction.RollupCategory `json:"rollupCategory"`
	Items           []transaction.Item         `json:"items"`
	Date            time.Time                  `json:"date"`
	ReceiptUploaded bool                       `json:"receiptUploaded"`
	ReceiptURL      string                     `json:"receiptUrl,omitempty"`
	CO2Emissions    float64                    `json:"co2Emissions"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       *time.Time                 `json:"updatedAt,omitempty"`
}

func ToResponse(tx *transaction.Transaction) Response {
	items := tx.Items
	if items == nil {
		items = []transaction.Item{}
	}

	return Response{
		ID:              tx.ID,
		UserID:          tx.UserID,
		Merchant:        tx.Merchant,
		Amount:          tx.Amount,
		Category:        tx.Category,
		RollupCategory:  tx.Category.Rollup(),
		Items:           items,
		Date:            tx.Date,
		ReceiptUploaded: tx.ReceiptUploaded,
		ReceiptURL:      tx.ReceiptURL,
		CO2Emissions:    tx.CO2Emissions,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}
