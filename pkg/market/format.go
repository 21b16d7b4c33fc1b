package market

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatPrice renders v with two decimals the way printf's %.2f does: the
// exact binary value is rounded, ties to even. 2.675 prints as "2.67".
func FormatPrice(v float64) string {
	return exactDecimal(v).StringFixedBank(2)
}

// FormatMarketCap renders a capitalization in billions at or above 1e9 and in
// millions below, e.g. "$3.20B" or "$812.50M".
func FormatMarketCap(v float64) string {
	if v >= 1e9 {
		return "$" + FormatPrice(v/1e9) + "B"
	}
	return "$" + FormatPrice(v/1e6) + "M"
}

// exactDecimal converts v without the shortest-representation step of
// decimal.NewFromFloat, so no digits are invented before rounding.
func exactDecimal(v float64) decimal.Decimal {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	frac, exp := math.Frexp(v)
	m := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(m.Lsh(m, uint(exp)), 0)
	}
	// m * 2^-k == m * 5^k * 10^-k
	k := int64(-exp)
	m.Mul(m, new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil))
	return decimal.NewFromBigInt(m, int32(-k))
}
