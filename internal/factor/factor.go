// Package factor holds the static emission factors used to estimate the
// footprint of receipt line items.
package factor

import (
	"strings"
	"unicode"
)

const (
	// BeefHerd is used for any meat the table does not list explicitly.
	BeefHerd = 99.48

	// Other is the fallback factor for everything that is not meat.
	Other = 3.2

	// CO2PerDollar is the spend-based model: expected kg CO2e per currency
	// unit spent. It is not derived from the per-item table.
	CO2PerDollar = 3.7

	// AssumedPricePerKg converts a line item's spend into an estimated mass.
	AssumedPricePerKg = 10.0
)

// Row is one entry of the factor table, in kg CO2e per kg of product.
type Row struct {
	Name    string
	Factor  float64
	Aliases []string
}

var table = []Row{
	{Name: "Beef (beef herd)", Factor: BeefHerd, Aliases: []string{"beef", "beef herd"}},
	{Name: "Beef (dairy herd)", Factor: 33.3, Aliases: []string{"dairy beef", "beef dairy herd"}},
	{Name: "Lamb & Mutton", Factor: 39.72, Aliases: []string{"lamb", "mutton", "lamb and mutton"}},
	{Name: "Cheese", Factor: 23.88},
	{Name: "Dark Chocolate", Factor: 46.65},
	{Name: "Coffee", Factor: 28.53},
	{Name: "Shrimps (farmed)", Factor: 26.87, Aliases: []string{"shrimp", "shrimps", "farmed shrimp"}},
	{Name: "Fish (farmed)", Factor: 13.63, Aliases: []string{"fish", "farmed fish"}},
	{Name: "Pig Meat", Factor: 12.31, Aliases: []string{"pork", "pig"}},
	{Name: "Poultry Meat", Factor: 9.87, Aliases: []string{"poultry", "chicken"}},
	{Name: "Eggs", Factor: 4.67, Aliases: []string{"egg"}},
	{Name: "Rice", Factor: 4.45},
	{Name: "Milk", Factor: 3.15},
}

var lookup = buildLookup()

func buildLookup() map[string]float64 {
	m := make(map[string]float64)

	for _, r := range table {
		m[normalize(r.Name)] = r.Factor
		for _, a := range r.Aliases {
			m[normalize(a)] = r.Factor
		}
	}

	return m
}

// meatWords are tokens that make an item recognizable as meat.
var meatWords = map[string]struct{}{
	"beef": {}, "steak": {}, "ribeye": {}, "sirloin": {}, "tenderloin": {}, "brisket": {},
	"burger": {}, "burgers": {}, "hamburger": {}, "veal": {}, "venison": {}, "bison": {},
	"meat": {}, "meats": {}, "meatball": {}, "meatballs": {}, "mince": {}, "ham": {},
	"bacon": {}, "sausage": {}, "sausages": {}, "salami": {}, "pepperoni": {}, "prosciutto": {},
	"chorizo": {}, "pork": {}, "pig": {}, "lamb": {}, "mutton": {}, "goat": {}, "chicken": {},
	"turkey": {}, "duck": {}, "poultry": {}, "ribs": {}, "chop": {}, "chops": {}, "jerky": {},
	"roast": {}, "wings": {}, "drumstick": {}, "drumsticks": {}, "filet": {}, "mignon": {},
}

// Table returns a copy of the factor rows in display order.
func Table() []Row {
	out := make([]Row, len(table))
	copy(out, table)

	return out
}

// For returns the kg CO2e per kg factor for an item name. Names are matched
// exactly after trimming and case folding; unlisted meats are treated as
// beef-herd and everything else falls back to Other.
func For(itemName string) float64 {
	if f, ok := lookup[normalize(itemName)]; ok {
		return f
	}

	if IsMeat(itemName) {
		return BeefHerd
	}

	return Other
}

// IsMeat reports whether any word of the name is a known meat term.
func IsMeat(name string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, w := range words {
		if _, ok := meatWords[w]; ok {
			return true
		}
	}

	return false
}

// EstimatedKg approximates the mass bought from the money spent on it.
func EstimatedKg(price float64, quantity int) float64 {
	if price <= 0 || quantity <= 0 {
		return 0
	}

	return price * float64(quantity) / AssumedPricePerKg
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
