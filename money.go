package tracker

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders a decimal amount in the given currency with the
// currency's own symbol and fraction rules ("$1,234.56" for USD).
func FormatMoney(value decimal.Decimal, currency string) string {
	// The Money constructor is the only way to get a never-nil currency.
	cur := money.New(0, currency).Currency()
	minor := value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// FormatQuote renders an amount in the portfolio's quote currency.
func FormatQuote(value decimal.Decimal, quote Ticker) string {
	return FormatMoney(value, string(quote))
}
