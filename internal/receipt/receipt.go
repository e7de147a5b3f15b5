// Package receipt turns the untrusted output of the receipt vision step into
// a validated transaction draft.
package receipt

import (
	"errors"
	"fmt"
)

// Category is the coarse classification a receipt is given.
type Category string

const (
	CategoryDining  Category = "dining"
	CategoryGrocery Category = "grocery"
	CategoryRetail  Category = "retail"
	CategoryOther   Category = "other"
)

// Categories lists the receipt categories in prompt order.
var Categories = []Category{CategoryGrocery, CategoryDining, CategoryRetail, CategoryOther}

func coerceCategory(s string) Category {
	switch c := Category(s); c {
	case CategoryDining, CategoryGrocery, CategoryRetail, CategoryOther:
		return c
	}

	return CategoryOther
}

// Item is a single validated receipt line.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Draft is a normalized receipt that has not been persisted yet.
type Draft struct {
	Merchant     string   `json:"merchant"`
	Category     Category `json:"category"`
	Amount       float64  `json:"amount"`
	Items        []Item   `json:"items"`
	CO2Emissions float64  `json:"co2Emissions"`

	// EmissionsIncomplete is set when the items do not account for the
	// amount, when items had to be dropped, or when the amount was missing.
	EmissionsIncomplete bool `json:"emissionsIncomplete"`
	DroppedItems        int  `json:"droppedItems"`
}

// ErrNoJSON is wrapped by ParseError when the payload has no object in it.
var ErrNoJSON = errors.New("no JSON object found")

// ParseError reports a receipt payload that could not be read at all. The
// receipt should be photographed or uploaded again.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing receipt: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
