package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/bonsai/internal/factor"
)

// UnknownMerchant is used when the payload names no merchant.
const UnknownMerchant = "Unknown"

// ErrNoReceiptFields is wrapped by ParseError when the object decodes but
// carries none of the receipt fields.
var ErrNoReceiptFields = errors.New("no receipt fields in payload")

var reconcileTolerance = decimal.New(1, -2)

// number accepts a JSON number or a string holding one. Anything else is
// left unset rather than failing the whole payload.
type number struct {
	value float64
	valid bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	*n = number{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.store(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}

	s, ok := plainNumeral(strings.NewReplacer("$", "", "€", "", "£", "", " ", "").Replace(s))
	if !ok {
		return nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n.store(f)
	}

	return nil
}

// plainNumeral rewrites a numeral with grouping commas or a decimal comma
// into ParseFloat's form. "1,50" is 1.50, "1,234" and "1,234.50" group
// thousands and "1.234,50" groups with dots. Strings that fit none of these
// are rejected.
func plainNumeral(s string) (string, bool) {
	comma := strings.LastIndex(s, ",")
	if comma < 0 {
		return s, true
	}

	dot := strings.LastIndex(s, ".")

	switch {
	case dot > comma:
		return strings.ReplaceAll(s, ",", ""), groupedThousands(s[:dot], ",")
	case dot >= 0:
		if strings.Count(s, ",") > 1 {
			return "", false
		}

		return strings.ReplaceAll(s[:comma], ".", "") + "." + s[comma+1:], groupedThousands(s[:comma], ".")
	}

	if frac := len(s) - comma - 1; strings.Count(s, ",") == 1 && frac >= 1 && frac <= 2 {
		return s[:comma] + "." + s[comma+1:], true
	}

	return strings.ReplaceAll(s, ",", ""), groupedThousands(s, ",")
}

// groupedThousands reports whether every group after the first separator is
// exactly three characters long.
func groupedThousands(s, sep string) bool {
	groups := strings.Split(s, sep)
	if groups[0] == "" || groups[0] == "-" {
		return false
	}

	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}

	return true
}

func (n *number) store(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}

	n.value = f
	n.valid = true
}

type payload struct {
	Merchant     json.RawMessage `json:"merchant"`
	Category     json.RawMessage `json:"category"`
	Amount       number          `json:"amount"`
	Items        json.RawMessage `json:"items"`
	CO2Emissions number          `json:"co2Emissions"`
}

type payloadItem struct {
	Name     json.RawMessage `json:"name"`
	Price    number          `json:"price"`
	Quantity number          `json:"quantity"`
}

// Normalize extracts the JSON object from a vision response, validates it and
// returns a draft. The response may be wrapped in prose or code fences. It
// fails with a *ParseError when there is nothing usable in it.
func Normalize(raw string) (*Draft, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var p payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, &ParseError{Err: err}
	}

	if p.Merchant == nil && p.Items == nil && !p.Amount.valid && !p.CO2Emissions.valid {
		return nil, &ParseError{Err: ErrNoReceiptFields}
	}

	d := &Draft{
		Merchant: stringOr(p.Merchant, UnknownMerchant),
		Category: coerceCategory(strings.ToLower(stringOr(p.Category, ""))),
		Items:    []Item{},
	}

	rawItems := decodeItemList(p.Items)

	itemsTotal := decimal.Zero

	for _, raw := range rawItems {
		it, ok := validItem(raw)
		if !ok {
			d.DroppedItems++
			continue
		}

		d.Items = append(d.Items, it)
		itemsTotal = itemsTotal.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if d.DroppedItems > 0 {
		d.EmissionsIncomplete = true

		slog.Warn("dropped malformed receipt items",
			"merchant", d.Merchant,
			"dropped", d.DroppedItems,
			"kept", len(d.Items),
		)
	}

	if p.Amount.valid && p.Amount.value >= 0 {
		d.Amount = p.Amount.value
	} else {
		d.Amount = itemsTotal.InexactFloat64()
		d.EmissionsIncomplete = true
	}

	if itemsTotal.Sub(decimal.NewFromFloat(d.Amount)).Abs().GreaterThan(reconcileTolerance) {
		d.EmissionsIncomplete = true
	}

	if p.CO2Emissions.valid && p.CO2Emissions.value >= 0 {
		d.CO2Emissions = p.CO2Emissions.value
	} else {
		d.CO2Emissions = EstimateEmissions(d.Items)
	}

	return d, nil
}

// EstimateEmissions sums factor × estimated mass over the items, rounded to
// two decimals.
func EstimateEmissions(items []Item) float64 {
	total := decimal.Zero

	for _, it := range items {
		kg := factor.EstimatedKg(it.Price, it.Quantity)
		total = total.Add(decimal.NewFromFloat(factor.For(it.Name) * kg))
	}

	return total.Round(2).InexactFloat64()
}

func extractObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}

	return raw[start : end+1], nil
}

func decodeItemList(data json.RawMessage) []json.RawMessage {
	if data == nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	return items
}

func validItem(data json.RawMessage) (Item, bool) {
	var pi payloadItem
	if err := json.Unmarshal(data, &pi); err != nil {
		return Item{}, false
	}

	name := strings.TrimSpace(stringOr(pi.Name, ""))
	if name == "" {
		return Item{}, false
	}

	if !pi.Price.valid || pi.Price.value < 0 {
		return Item{}, false
	}

	qty := 1.0
	if pi.Quantity.valid {
		qty = pi.Quantity.value
	}

	if qty < 1 || qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return Item{}, false
	}

	return Item{Name: name, Price: pi.Price.value, Quantity: int(qty)}, true
}

func stringOr(data json.RawMessage, fallback string) string {
	if data == nil {
		return fallback
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fallback
	}

	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}

	return s
}
