package cgd

import "github.com/shopspring/decimal"

// layout describes the columns of one CGD export format.
type layout struct {
	name string
	date string
	desc string
	// signed is a single column where debits are negative.
	signed string
	// debit and credit are used by formats that split the two.
	debit  string
	credit string
}

func (l layout) required() []string {
	if l.signed != "" {
		return []string{l.date, l.desc, l.signed}
	}

	return []string{l.date, l.desc, l.debit, l.credit}
}

func (l layout) matches(cols colIndex) bool {
	for _, name := range l.required() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// spent returns the money that left the account on this row. Credits and
// unreadable amounts report false.
func (l layout) spent(cols colIndex, row []string) (decimal.Decimal, bool) {
	if l.signed != "" {
		d, ok := amountAt(row, cols[l.signed])
		if !ok || !d.IsNegative() {
			return decimal.Zero, false
		}

		return d.Neg(), true
	}

	d, ok := amountAt(row, cols[l.debit])
	if !ok || d.IsZero() {
		return decimal.Zero, false
	}

	return d.Abs(), true
}

// layouts are tried in order; more specific formats come first.
var layouts = []layout{
	{name: "cartão", date: "Data", desc: "Descrição", debit: "Débito", credit: "Crédito"},
	{name: "extrato", date: "Data mov.", desc: "Descrição", signed: "Movimento"},
	{name: "conta", date: "Data mov.", desc: "Descrição", signed: "Montante"},
}

func amountAt(row []string, idx int) (decimal.Decimal, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}
