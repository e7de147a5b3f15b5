package receipt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
)

func TestNormalize_FencedResponse(t *testing.T) {
	raw := "Here is the result:\n```json\n" +
		`{"merchant": "Trader Joe's", "category": "grocery", "amount": 12.5,
		  "items": [{"name": "Milk", "price": 4.5, "quantity": 1}, {"name": "Rice", "price": 4, "quantity": 2}],
		  "co2Emissions": 6.1}` +
		"\n```"

	d, err := receipt.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Trader Joe's", d.Merchant)
	assert.Equal(t, receipt.CategoryGrocery, d.Category)
	assert.Equal(t, 12.5, d.Amount)
	assert.Equal(t, 6.1, d.CO2Emissions)
	assert.False(t, d.EmissionsIncomplete)
	require.Len(t, d.Items, 2)
	assert.Equal(t, receipt.Item{Name: "Rice", Price: 4, Quantity: 2}, d.Items[1])
}

func TestNormalize_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "NoBraces", raw: "I could not read this receipt."},
		{name: "ReversedBraces", raw: "} nothing {"},
		{name: "BrokenJSON", raw: `{"merchant": "A", "amount": }`},
		{name: "TwoObjects", raw: `{"merchant": "A"} and {"merchant": "B"}`},
		{name: "NoReceiptFields", raw: `{"note": "blurry"}`},
		{name: "Empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := receipt.Normalize(tt.raw)
			require.Error(t, err)
			assert.Nil(t, d)

			var perr *receipt.ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	d, err := receipt.Normalize(`{"merchant": "", "category": "Electronics", "amount": 3, "items": [{"name": "Gum", "price": 3}]}`)
	require.NoError(t, err)

	assert.Equal(t, receipt.UnknownMerchant, d.Merchant)
	assert.Equal(t, receipt.CategoryOther, d.Category)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 1, d.Items[0].Quantity)
	assert.False(t, d.EmissionsIncomplete)
}

func TestNormalize_CategoryCaseFolded(t *testing.T) {
	d, err := receipt.Normalize(`{"merchant": "Bistro", "category": "Dining", "amount": 0}`)
	require.NoError(t, err)
	assert.Equal(t, receipt.CategoryDining, d.Category)
}

func TestNormalize_DropsMalformedItems(t *testing.T) {
	raw := `{"merchant": "Shop", "amount": 10, "items": [
		{"name": "Bread", "price": 10, "quantity": 1},
		{"name": "Ghost"},
		{"name": "Refund", "price": -2},
		{"name": "Half", "price": 1, "quantity": 0.5},
		{"name": "", "price": 1},
		"not an item",
		null
	], "co2Emissions": 2}`

	d, err := receipt.Normalize(raw)
	require.NoError(t, err)

	require.Len(t, d.Items, 1)
	assert.Equal(t, "Bread", d.Items[0].Name)
	assert.Equal(t, 6, d.DroppedItems)
	assert.True(t, d.EmissionsIncomplete)
	assert.Equal(t, 10.0, d.Amount)
}

func TestNormalize_Reconciliation(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantIncomplete bool
		wantAmount     float64
	}{
		{
			name:       "WithinTolerance",
			raw:        `{"merchant": "A", "amount": 3.31, "items": [{"name": "x", "price": 1.1, "quantity": 3}]}`,
			wantAmount: 3.31,
		},
		{
			name:           "ItemsMissingFromOCR",
			raw:            `{"merchant": "A", "amount": 20, "items": [{"name": "x", "price": 5}]}`,
			wantIncomplete: true,
			wantAmount:     20,
		},
		{
			name:           "AmountMissing",
			raw:            `{"merchant": "A", "items": [{"name": "x", "price": 2.25, "quantity": 2}]}`,
			wantIncomplete: true,
			wantAmount:     4.5,
		},
		{
			name:           "AmountNegative",
			raw:            `{"merchant": "A", "amount": -4, "items": [{"name": "x", "price": 4}]}`,
			wantIncomplete: true,
			wantAmount:     4,
		},
		{
			name:       "StringNumbers",
			raw:        `{"merchant": "A", "amount": "$1,204.00", "items": [{"name": "TV", "price": "1204", "quantity": "1"}]}`,
			wantAmount: 1204,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := receipt.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIncomplete, d.EmissionsIncomplete)
			assert.InDelta(t, tt.wantAmount, d.Amount, 1e-9)
		})
	}
}

func TestNormalize_StringAmounts(t *testing.T) {
	tests := []struct {
		amount string
		want   float64
	}{
		{amount: "1,50", want: 1.5},
		{amount: "3,00", want: 3},
		{amount: "€12,5", want: 12.5},
		{amount: "1,234.50", want: 1234.5},
		{amount: "1.234,50", want: 1234.5},
		{amount: "1,234", want: 1234},
		{amount: "2,500,000", want: 2500000},
		{amount: "7.25", want: 7.25},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			d, err := receipt.Normalize(`{"merchant": "A", "amount": "` + tt.amount + `"}`)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, d.Amount, 1e-9)
		})
	}
}

func TestNormalize_AmbiguousStringAmountTreatedAsMissing(t *testing.T) {
	for _, amount := range []string{"1,5,0", "12,3456", "1,23.4", "1.2.3,40"} {
		t.Run(amount, func(t *testing.T) {
			d, err := receipt.Normalize(`{"merchant": "A", "amount": "` + amount + `", "items": [{"name": "x", "price": 2}]}`)
			require.NoError(t, err)
			assert.True(t, d.EmissionsIncomplete)
			assert.InDelta(t, 2, d.Amount, 1e-9)
		})
	}
}

func TestNormalize_EstimatesMissingEmissions(t *testing.T) {
	// 20 spent on steak is 2kg at the assumed price per kg; unlisted meat is beef herd.
	d, err := receipt.Normalize(`{"merchant": "Butcher", "amount": 20, "items": [{"name": "Ribeye Steak", "price": 20, "quantity": 1}]}`)
	require.NoError(t, err)
	assert.InDelta(t, 198.96, d.CO2Emissions, 1e-9)

	d, err = receipt.Normalize(`{"merchant": "Butcher", "amount": 20, "items": [{"name": "Ribeye Steak", "price": 20}], "co2Emissions": -1}`)
	require.NoError(t, err)
	assert.InDelta(t, 198.96, d.CO2Emissions, 1e-9)
}

func TestNormalize_TrustsUpstreamEmissions(t *testing.T) {
	d, err := receipt.Normalize(`{"merchant": "Cafe", "amount": 4, "items": [{"name": "Coffee", "price": 4}], "co2Emissions": 0}`)
	require.NoError(t, err)
	assert.Zero(t, d.CO2Emissions)
}

func TestNormalize_NonNegativeInvariant(t *testing.T) {
	inputs := []string{
		`{"merchant": "A", "amount": -1, "co2Emissions": -5, "items": [{"name": "x", "price": -1, "quantity": -3}]}`,
		`{"amount": "abc", "items": "nope"}`,
		`{"merchant": 42, "items": [{"name": "y", "price": 0, "quantity": 1e3}]}`,
	}

	for _, in := range inputs {
		d, err := receipt.Normalize(in)
		require.NoError(t, err, in)

		assert.GreaterOrEqual(t, d.Amount, 0.0)
		assert.GreaterOrEqual(t, d.CO2Emissions, 0.0)

		for _, it := range d.Items {
			assert.GreaterOrEqual(t, it.Price, 0.0)
			assert.GreaterOrEqual(t, it.Quantity, 1)
		}
	}
}

func TestEstimateEmissions(t *testing.T) {
	items := []receipt.Item{
		{Name: "Milk", Price: 2, Quantity: 5},
		{Name: "Apples", Price: 5, Quantity: 1},
	}

	// milk: 1kg * 3.15, apples: 0.5kg * 3.2
	assert.InDelta(t, 4.75, receipt.EstimateEmissions(items), 1e-9)
	assert.Zero(t, receipt.EstimateEmissions(nil))
}
