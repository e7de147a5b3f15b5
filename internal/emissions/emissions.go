// Package emissions computes actual, expected and reduced emissions for a
// set of transactions over a time window.
package emissions

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/bonsai/internal/factor"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidBaseline  = errors.New("invalid baseline")
)

type TimeRange string

const (
	OneMonth    TimeRange = "1m"
	ThreeMonths TimeRange = "3m"
	SixMonths   TimeRange = "6m"
	OneYear     TimeRange = "1y"

	DefaultTimeRange = SixMonths
)

// ParseTimeRange accepts 1m, 3m, 6m or 1y. An empty value selects the
// default window.
func ParseTimeRange(s string) (TimeRange, error) {
	switch tr := TimeRange(s); tr {
	case "":
		return DefaultTimeRange, nil
	case OneMonth, ThreeMonths, SixMonths, OneYear:
		return tr, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
}

// Months is the window length in calendar months.
func (tr TimeRange) Months() int {
	switch tr {
	case OneMonth:
		return 1
	case ThreeMonths:
		return 3
	case OneYear:
		return 12
	}

	return 6
}

// Start is now moved back by the window length, keeping the wall clock.
func (tr TimeRange) Start(now time.Time) time.Time {
	if tr == OneYear {
		return now.AddDate(-1, 0, 0)
	}

	return now.AddDate(0, -tr.Months(), 0)
}

// Window returns the inclusive [start, now] bounds.
func (tr TimeRange) Window(now time.Time) (time.Time, time.Time) {
	return tr.Start(now), now
}

// Filter keeps transactions dated within [start, end], both ends inclusive.
func Filter(txs []*transaction.Transaction, start, end time.Time) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(txs))

	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}

		out = append(out, tx)
	}

	return out
}

// Baseline selects how expected emissions are derived. The two models
// disagree on whether a reduction can go negative and must stay separate.
type Baseline string

const (
	// FixedAverage compares against the average annual footprint, scaled to
	// the window. Reductions can be negative.
	FixedAverage Baseline = "fixed"
	// SpendProportional expects CO2PerDollar kg for every unit spent.
	// Reductions are floored at zero.
	SpendProportional Baseline = "spend"
)

// AnnualAverageKg is the fixed yearly reference footprint in kg CO2e.
const AnnualAverageKg = 16000

func ParseBaseline(s string) (Baseline, error) {
	switch b := Baseline(s); b {
	case FixedAverage, SpendProportional:
		return b, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidBaseline, s)
}

// FixedExpected is the fixed-average baseline for the window, in kg.
func FixedExpected(tr TimeRange) float64 {
	months := decimal.NewFromInt(int64(tr.Months()))

	return decimal.NewFromInt(AnnualAverageKg).Mul(months).Div(decimal.NewFromInt(12)).Round(2).InexactFloat64()
}

func (b Baseline) expected(spending decimal.Decimal, tr TimeRange) decimal.Decimal {
	if b == SpendProportional {
		return spending.Mul(decimal.NewFromFloat(factor.CO2PerDollar))
	}

	return decimal.NewFromFloat(FixedExpected(tr))
}

func (b Baseline) reduced(expected, actual decimal.Decimal) decimal.Decimal {
	r := expected.Sub(actual)
	if b == SpendProportional && r.IsNegative() {
		return decimal.Zero
	}

	return r
}

// Stats is one user's result for a window.
type Stats struct {
	UserID            uuid.UUID `json:"userId"`
	TotalSpending     float64   `json:"totalSpending"`
	ActualEmissions   float64   `json:"actualEmissions"`
	ExpectedEmissions float64   `json:"expectedEmissions"`
	EmissionsReduced  float64   `json:"emissionsReduced"`
	PercentageReduced string    `json:"percentageReduced"`
}

// Aggregate totals txs, which must already be filtered to the window, and
// compares the result with the chosen baseline. No transactions yields zero
// actual emissions rather than an error.
func Aggregate(userID uuid.UUID, txs []*transaction.Transaction, b Baseline, tr TimeRange) Stats {
	spending := decimal.Zero
	actual := decimal.Zero

	for _, tx := range txs {
		spending = spending.Add(decimal.NewFromFloat(tx.Amount))
		actual = actual.Add(decimal.NewFromFloat(tx.CO2Emissions))
	}

	expected := b.expected(spending, tr)
	reduced := b.reduced(expected, actual)

	return Stats{
		UserID:            userID,
		TotalSpending:     spending.Round(2).InexactFloat64(),
		ActualEmissions:   actual.Round(2).InexactFloat64(),
		ExpectedEmissions: expected.Round(2).InexactFloat64(),
		EmissionsReduced:  reduced.Round(2).InexactFloat64(),
		PercentageReduced: percentage(reduced, expected),
	}
}

func percentage(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0.0"
	}

	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1)
}

// CategoryShare is the slice of a footprint attributed to one rollup
// category.
type CategoryShare struct {
	Category   transaction.RollupCategory `json:"category"`
	Emissions  float64                    `json:"emissions"`
	Spending   float64                    `json:"spending"`
	Percentage int                        `json:"percentage"`
}

// Breakdown splits emissions and spend over the rollup categories, largest
// emitter first. Every rollup category is present, ties keep display order.
func Breakdown(txs []*transaction.Transaction) []CategoryShare {
	emissions := make(map[transaction.RollupCategory]decimal.Decimal, len(transaction.RollupCategories))
	spending := make(map[transaction.RollupCategory]decimal.Decimal, len(transaction.RollupCategories))
	total := decimal.Zero

	for _, tx := range txs {
		c := tx.Category.Rollup()
		co2 := decimal.NewFromFloat(tx.CO2Emissions)

		emissions[c] = emissions[c].Add(co2)
		spending[c] = spending[c].Add(decimal.NewFromFloat(tx.Amount))
		total = total.Add(co2)
	}

	shares := make([]CategoryShare, 0, len(transaction.RollupCategories))

	for _, c := range transaction.RollupCategories {
		share := CategoryShare{
			Category:  c,
			Emissions: emissions[c].Round(2).InexactFloat64(),
			Spending:  spending[c].Round(2).InexactFloat64(),
		}

		if !total.IsZero() {
			share.Percentage = int(emissions[c].Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		}

		shares = append(shares, share)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Emissions > shares[j].Emissions
	})

	return shares
}
