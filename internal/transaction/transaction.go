package transaction

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("transaction not found")

// Transaction is one purchase attributed to a user.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Amount          float64
	Category        Category
	Items           []Item
	Date            time.Time
	Merchant        string
	ReceiptUploaded bool
	ReceiptURL      string
	CO2Emissions    float64 // kg CO2e
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Item is a purchased line. Price is per unit.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ValidationError lists the offending fields of a rejected entry.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "invalid transaction: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}

	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}
