package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	testCases := []struct {
		name string
		ds   []decimal.Decimal
		want string
	}{
		{name: "empty", ds: nil, want: "0"},
		{
			name: "exact",
			ds:   []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(6)},
			want: "3",
		},
		{
			name: "twenty",
			ds:   append(repeat(decimal.NewFromInt(1), 19), decimal.NewFromInt(19)),
			want: "1.9",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Mean(tc.ds).String())
		})
	}
}

func TestRatio(t *testing.T) {
	r, ok := Ratio(decimal.NewFromInt(80), decimal.NewFromInt(10))
	assert.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromInt(8)))

	_, ok = Ratio(decimal.NewFromInt(80), decimal.Zero)
	assert.False(t, ok)
	_, ok = Ratio(decimal.Zero, decimal.NewFromInt(10))
	assert.False(t, ok)
	_, ok = Ratio(decimal.NewFromInt(-1), decimal.NewFromInt(10))
	assert.False(t, ok)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "1.50B", Humanize(decimal.RequireFromString("1500000000")))
	assert.Equal(t, "2.25M", Humanize(decimal.RequireFromString("2250000")))
	assert.Equal(t, "3.00K", Humanize(decimal.RequireFromString("3000")))
	assert.Equal(t, "999.50", Humanize(decimal.RequireFromString("999.5")))
}

func repeat(d decimal.Decimal, n int) []decimal.Decimal {
	res := make([]decimal.Decimal, n)
	for i := range res {
		res[i] = d
	}
	return res
}
