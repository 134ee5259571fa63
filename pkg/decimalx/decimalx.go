package decimalx

import (
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// Mean 算术平均, 空切片返回 0
func Mean(ds []decimal.Decimal) decimal.Decimal {
	if len(ds) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, ds...).Div(decimal.NewFromInt(int64(len(ds))))
}

// Ratio a/b, 任一方不为正数时返回 false
func Ratio(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if !a.IsPositive() || !b.IsPositive() {
		return decimal.Zero, false
	}
	return a.Div(b), true
}

// Humanize 成交额显示, 1.23B / 4.56M / 7.89K
func Humanize(d decimal.Decimal) string {
	switch {
	case d.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}
