package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

// MaxMinorUnits is the largest unit amount Stripe accepts for a price
// (999,999.99). It also fits the numeric(12,2) amount columns.
const MaxMinorUnits int64 = 99_999_999

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxMinorUnits)
)

// ToMinorUnits converts a positive decimal amount into whole cents, rounding
// half away from zero (19.999 -> 2000). Amounts above MaxMinorUnits cents
// are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}
	cents := amount.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount rounds to zero cents").
			WithDetails(map[string]string{"amount": "must be at least 0.01"})
	}
	if cents.GreaterThan(maxCents) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds the maximum of 999999.99").
			WithDetails(map[string]string{"amount": "must be at most 999999.99"})
	}
	return cents.IntPart(), nil
}

// FromFloat turns a decoded JSON number into a decimal amount.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders an amount as dollars with thousands separators, e.g. 1,250.00.
func Format(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// FormatUSD prefixes Format with a dollar sign.
func FormatUSD(amount decimal.Decimal) string {
	return fmt.Sprintf("$%s", Format(amount))
}
