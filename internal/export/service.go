// Package export renders a user's footprint for a period as text or CSV.
package export

//go:generate mockgen -source=service.go -destination=service_mock.go -package=export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Footprints interface {
	Footprint(ctx context.Context, userID uuid.UUID, tr emissions.TimeRange, b emissions.Baseline) (*leaderboard.Footprint, error)
}

type Transactions interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Report is a footprint together with the transactions behind it.
type Report struct {
	Footprint    *leaderboard.Footprint     `json:"footprint"`
	Transactions []*transaction.Transaction `json:"-"`
}

type Service struct {
	footprints   Footprints
	transactions Transactions
}

func NewService(footprints Footprints, transactions Transactions) *Service {
	return &Service{footprints: footprints, transactions: transactions}
}

func (s *Service) Report(ctx context.Context, userID uuid.UUID, tr emissions.TimeRange, b emissions.Baseline) (*Report, error) {
	fp, err := s.footprints.Footprint(ctx, userID, tr, b)
	if err != nil {
		return nil, fmt.Errorf("computing footprint: %w", err)
	}

	txs, err := s.transactions.List(ctx, transaction.ListFilter{
		UserIDs:   []uuid.UUID{userID},
		StartDate: &fp.Start,
		EndDate:   &fp.End,
	})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &Report{Footprint: fp, Transactions: emissions.Filter(txs, fp.Start, fp.End)}, nil
}

// Summary formats the report as plain text, one transaction per line.
func Summary(r *Report) string {
	var sb strings.Builder

	fp := r.Footprint
	st := fp.Stats

	fmt.Fprintf(&sb, "Footprint %s to %s (%s, %s baseline)\n",
		fp.Start.Format("2006-01-02"), fp.End.Format("2006-01-02"), fp.TimeRange, fp.Baseline)
	fmt.Fprintf(&sb, "Spent %.2f | Emitted %.2f kg | Expected %.2f kg | Reduced %.2f kg (%s%%)\n",
		st.TotalSpending, st.ActualEmissions, st.ExpectedEmissions, st.EmissionsReduced, st.PercentageReduced)

	for _, c := range fp.Breakdown {
		if c.Emissions == 0 && c.Spending == 0 {
			continue
		}

		fmt.Fprintf(&sb, "  %-15s %8.2f kg %3d%%\n", c.Category, c.Emissions, c.Percentage)
	}

	for _, tx := range r.Transactions {
		receipt := "no receipt"
		if tx.ReceiptUploaded {
			receipt = "receipt"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %.2f | %.2f kg | %s\n",
			tx.Date.Format("2006-01-02"), tx.Merchant, tx.Category, tx.Amount, tx.CO2Emissions, receipt)
	}

	return sb.String()
}

var csvHeader = []string{"date", "merchant", "category", "rollup", "amount", "co2_kg", "receipt_url"}

// WriteCSV writes one row per transaction.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range r.Transactions {
		row := []string{
			tx.Date.Format("2006-01-02"),
			tx.Merchant,
			string(tx.Category),
			string(tx.Category.Rollup()),
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			strconv.FormatFloat(tx.CO2Emissions, 'f', 2, 64),
			tx.ReceiptURL,
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}
