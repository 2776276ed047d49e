package utils

import "github.com/shopspring/decimal"

// AmountPlaces matches the scale of the numeric(24,8) money columns.
const AmountPlaces = 8

func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}
