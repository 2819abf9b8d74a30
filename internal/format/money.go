// Package format renders dashboard figures for display in the configured
// locale and currency.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const NotAvailable = "n/a"

type Money struct {
	printer *message.Printer
	symbol  string
	unit    currency.Unit
}

// NewMoney builds a formatter for an ISO 4217 currency code printed with the
// number conventions of locale, a BCP 47 tag such as "es-CO".
func NewMoney(code, locale string) (*Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}

	p := message.NewPrinter(tag)
	return &Money{
		printer: p,
		symbol:  p.Sprint(currency.Symbol(unit)),
		unit:    unit,
	}, nil
}

func (m *Money) Currency() string {
	return m.unit.String()
}

func (m *Money) Symbol() string {
	return m.symbol
}

// Format prints v with the currency symbol and two decimals. A negative
// sign goes before the symbol.
func (m *Money) Format(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + m.symbol + " " + m.Decimal(v, 2)
}

// Decimal prints v with the given number of decimals using the locale's
// grouping and decimal separators.
func (m *Money) Decimal(v float64, decimals int) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return m.printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Integer prints a count with grouping separators.
func (m *Money) Integer(v int) string {
	return m.printer.Sprint(number.Decimal(v))
}
