package mailer

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + brPrinter.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}
