// Package importer turns bank exports into manual transaction entries.
package importer

//go:generate mockgen -source=importer.go -destination=importer_mock.go -package=importer

import (
	"context"
	"errors"
	"io"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

var (
	ErrUnknownBank = errors.New("unknown bank")
	// ErrUnreadable wraps any failure to parse an uploaded export.
	ErrUnreadable = errors.New("unreadable bank export")
)

// Parser reads one bank's export format. Entries come back without a
// category.
type Parser interface {
	Parse(r io.Reader) ([]transaction.ManualEntry, error)
}

// Suggester proposes a category for a merchant; "" means no suggestion.
type Suggester interface {
	Suggest(ctx context.Context, merchant string) (transaction.Category, error)
}
