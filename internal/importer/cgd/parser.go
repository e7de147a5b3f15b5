// Package cgd reads Caixa Geral de Depósitos CSV exports.
package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/bonsai/internal/encoding"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

// ErrUnknownLayout means no header row matched the conta, extrato or cartão
// column sets.
var ErrUnknownLayout = errors.New("no matching CGD layout found")

// Parser turns the outgoing movements of a CGD export into manual entries.
// The category is left empty for the caller to fill in.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.ManualEntry, error) {
	utf8r, charset, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	l, cols, headerIdx, ok := detectLayout(rows)
	if !ok {
		return nil, ErrUnknownLayout
	}

	slog.Debug("parsing cgd export", "format", l.name, "charset", charset)

	return parseRows(l, cols, rows[headerIdx+1:], headerIdx+1)
}

type colIndex map[string]int

func detectLayout(rows [][]string) (layout, colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for _, l := range layouts {
			if l.matches(cols) {
				return l, cols, rowIdx, true
			}
		}
	}

	return layout{}, nil, 0, false
}

func parseRows(l layout, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.ManualEntry, error) {
	var entries []transaction.ManualEntry

	for i, row := range rows {
		rowNum := headerRowNum + i + 2

		date, ok := parseDate(row, cols[l.date])
		if !ok {
			continue
		}

		desc := cellValue(row, cols[l.desc])
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		spent, ok := l.spent(cols, row)
		if !ok {
			continue
		}

		amount := spent.InexactFloat64()

		entries = append(entries, transaction.ManualEntry{
			Merchant: desc,
			Amount:   &amount,
			Date:     &date,
		})
	}

	return entries, nil
}

// parseDate reports false for blank or non-date cells such as footers.
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
