package emissions_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    emissions.TimeRange
		wantErr bool
	}{
		{in: "", want: emissions.SixMonths},
		{in: "1m", want: emissions.OneMonth},
		{in: "3m", want: emissions.ThreeMonths},
		{in: "6m", want: emissions.SixMonths},
		{in: "1y", want: emissions.OneYear},
		{in: "2w", wantErr: true},
		{in: "1Y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := emissions.ParseTimeRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, emissions.ErrInvalidTimeRange)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBaseline(t *testing.T) {
	b, err := emissions.ParseBaseline("spend")
	require.NoError(t, err)
	assert.Equal(t, emissions.SpendProportional, b)

	b, err = emissions.ParseBaseline("fixed")
	require.NoError(t, err)
	assert.Equal(t, emissions.FixedAverage, b)

	_, err = emissions.ParseBaseline("")
	assert.ErrorIs(t, err, emissions.ErrInvalidBaseline)
}

func TestTimeRange_Start(t *testing.T) {
	now := time.Date(2024, 8, 31, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 7, 31, 15, 30, 0, 0, time.UTC), emissions.OneMonth.Start(now))
	assert.Equal(t, time.Date(2024, 5, 31, 15, 30, 0, 0, time.UTC), emissions.ThreeMonths.Start(now))
	// 2024-02-31 normalizes to 2024-03-02.
	assert.Equal(t, time.Date(2024, 3, 2, 15, 30, 0, 0, time.UTC), emissions.SixMonths.Start(now))
	assert.Equal(t, time.Date(2023, 8, 31, 15, 30, 0, 0, time.UTC), emissions.OneYear.Start(now))
}

func TestFilter_InclusiveBounds(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start, end := emissions.OneMonth.Window(now)

	txs := []*transaction.Transaction{
		{Merchant: "before", Date: start.Add(-time.Second)},
		{Merchant: "start", Date: start},
		{Merchant: "middle", Date: start.Add(48 * time.Hour)},
		{Merchant: "end", Date: end},
		{Merchant: "future", Date: end.Add(time.Second)},
	}

	got := emissions.Filter(txs, start, end)

	names := make([]string, 0, len(got))
	for _, tx := range got {
		names = append(names, tx.Merchant)
	}

	assert.Equal(t, []string{"start", "middle", "end"}, names)
}

func TestFixedExpected(t *testing.T) {
	assert.Equal(t, 1333.33, emissions.FixedExpected(emissions.OneMonth))
	assert.Equal(t, 4000.0, emissions.FixedExpected(emissions.ThreeMonths))
	assert.Equal(t, 8000.0, emissions.FixedExpected(emissions.SixMonths))
	assert.Equal(t, 16000.0, emissions.FixedExpected(emissions.OneYear))
}

func TestAggregate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		txs      []*transaction.Transaction
		baseline emissions.Baseline
		tr       emissions.TimeRange
		want     emissions.Stats
	}{
		{
			name: "SpendProportionalOverBaseline",
			txs: []*transaction.Transaction{
				{Amount: 60, CO2Emissions: 300},
				{Amount: 40, CO2Emissions: 200},
			},
			baseline: emissions.SpendProportional,
			tr:       emissions.SixMonths,
			want: emissions.Stats{
				UserID:            userID,
				TotalSpending:     100,
				ActualEmissions:   500,
				ExpectedEmissions: 370,
				EmissionsReduced:  0,
				PercentageReduced: "0.0",
			},
		},
		{
			name:     "SpendProportionalUnderBaseline",
			txs:      []*transaction.Transaction{{Amount: 200, CO2Emissions: 185}},
			baseline: emissions.SpendProportional,
			tr:       emissions.OneMonth,
			want: emissions.Stats{
				UserID:            userID,
				TotalSpending:     200,
				ActualEmissions:   185,
				ExpectedEmissions: 740,
				EmissionsReduced:  555,
				PercentageReduced: "75.0",
			},
		},
		{
			name:     "SpendProportionalNoTransactions",
			baseline: emissions.SpendProportional,
			tr:       emissions.SixMonths,
			want: emissions.Stats{
				UserID:            userID,
				PercentageReduced: "0.0",
			},
		},
		{
			name:     "FixedAverageNoTransactions",
			baseline: emissions.FixedAverage,
			tr:       emissions.SixMonths,
			want: emissions.Stats{
				UserID:            userID,
				ExpectedEmissions: 8000,
				EmissionsReduced:  8000,
				PercentageReduced: "100.0",
			},
		},
		{
			name:     "FixedAverageCanGoNegative",
			txs:      []*transaction.Transaction{{Amount: 10, CO2Emissions: 5000}},
			baseline: emissions.FixedAverage,
			tr:       emissions.ThreeMonths,
			want: emissions.Stats{
				UserID:            userID,
				TotalSpending:     10,
				ActualEmissions:   5000,
				ExpectedEmissions: 4000,
				EmissionsReduced:  -1000,
				PercentageReduced: "-25.0",
			},
		},
		{
			name:     "FixedAverageRoundsPercentage",
			txs:      []*transaction.Transaction{{Amount: 1, CO2Emissions: 1000}},
			baseline: emissions.FixedAverage,
			tr:       emissions.OneMonth,
			want: emissions.Stats{
				UserID:            userID,
				TotalSpending:     1,
				ActualEmissions:   1000,
				ExpectedEmissions: 1333.33,
				EmissionsReduced:  333.33,
				PercentageReduced: "25.0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := emissions.Aggregate(userID, tt.txs, tt.baseline, tt.tr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_SpendProportionalFloor(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := r.Intn(6)
		txs := make([]*transaction.Transaction, n)

		for j := range txs {
			txs[j] = &transaction.Transaction{
				Amount:       float64(r.Intn(100000)) / 100,
				CO2Emissions: float64(r.Intn(200000)) / 100,
			}
		}

		got := emissions.Aggregate(uuid.New(), txs, emissions.SpendProportional, emissions.SixMonths)
		assert.GreaterOrEqual(t, got.EmissionsReduced, 0.0)
		assert.NotContains(t, got.PercentageReduced, "-")
	}
}

func TestBreakdown(t *testing.T) {
	txs := []*transaction.Transaction{
		{Category: transaction.CategoryGas, Amount: 50, CO2Emissions: 30},
		{Category: transaction.CategoryRideshare, Amount: 20, CO2Emissions: 10},
		{Category: transaction.CategoryDining, Amount: 40, CO2Emissions: 40},
		{Category: transaction.CategoryHousing, Amount: 1000, CO2Emissions: 20},
	}

	got := emissions.Breakdown(txs)
	require.Len(t, got, len(transaction.RollupCategories))

	// Dining and transportation tie; display order decides.
	assert.Equal(t, emissions.CategoryShare{
		Category: transaction.RollupDining, Emissions: 40, Spending: 40, Percentage: 40,
	}, got[0])
	assert.Equal(t, emissions.CategoryShare{
		Category: transaction.RollupTransportation, Emissions: 40, Spending: 70, Percentage: 40,
	}, got[1])
	assert.Equal(t, transaction.RollupOther, got[2].Category)
	assert.Equal(t, 20, got[2].Percentage)

	// Empty categories keep display order after the populated ones.
	assert.Equal(t, transaction.RollupGrocery, got[3].Category)
	assert.Equal(t, transaction.RollupRetail, got[4].Category)
	assert.Zero(t, got[4].Percentage)
}

func TestBreakdown_Empty(t *testing.T) {
	got := emissions.Breakdown(nil)
	require.Len(t, got, 5)

	for _, s := range got {
		assert.Zero(t, s.Percentage)
		assert.Zero(t, s.Emissions)
	}
}
