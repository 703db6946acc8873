package money

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Finite reports whether v can take part in arithmetic.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func fromFloat(v float64) decimal.Decimal {
	if !Finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func LineTotal(price float64, quantity int) float64 {
	return fromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}

func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(fromFloat(v))
	}
	return total.InexactFloat64()
}

func Sub(a, b float64) float64 {
	return fromFloat(a).Sub(fromFloat(b)).InexactFloat64()
}

// OrderTotal is itemsPrice + shippingPrice + taxPrice - discountPrice.
func OrderTotal(items, shipping, tax, discount float64) float64 {
	return fromFloat(items).
		Add(fromFloat(shipping)).
		Add(fromFloat(tax)).
		Sub(fromFloat(discount)).
		InexactFloat64()
}

// ToMinorUnits converts a base-unit amount into gateway minor units, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return fromFloat(amount).Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(minor int64) float64 {
	return decimal.NewFromInt(minor).Div(hundred).InexactFloat64()
}
