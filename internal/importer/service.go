package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/bonsai/internal/importer/cgd"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Service struct {
	parsers   map[Bank]Parser
	suggester Suggester
}

func NewService(suggester Suggester) *Service {
	return &Service{
		parsers: map[Bank]Parser{
			BankCGD: cgd.NewParser(),
		},
		suggester: suggester,
	}
}

// WithParser registers or replaces the parser for a bank.
func (s *Service) WithParser(bank Bank, p Parser) *Service {
	s.parsers[bank] = p
	return s
}

// Import parses the export of the given bank and categorises each expense
// from learned merchant mappings, defaulting to other.
func (s *Service) Import(ctx context.Context, bank Bank, r io.Reader) ([]transaction.ManualEntry, error) {
	parser, ok := s.parsers[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, bank)
	}

	entries, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, bank, err)
	}

	for i := range entries {
		entries[i].Category = s.categorise(ctx, entries[i].Merchant)
	}

	return entries, nil
}

func (s *Service) categorise(ctx context.Context, merchant string) transaction.Category {
	if s.suggester == nil {
		return transaction.CategoryOther
	}

	c, err := s.suggester.Suggest(ctx, merchant)
	if err != nil {
		slog.Warn("failed to suggest category", "merchant", merchant, "error", err)
		return transaction.CategoryOther
	}

	if c == "" {
		return transaction.CategoryOther
	}

	return c
}
