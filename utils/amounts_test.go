package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLineAmounts(t *testing.T) {
	tests := []struct {
		name         string
		rate         float64
		quantity     float64
		discountRate float64
		gstRate      float64
		want         LineAmounts
	}{
		{
			name:     "ten units at thirty with discount and gst",
			rate:     30, quantity: 10, discountRate: 10, gstRate: 18,
			want: LineAmounts{Gross: 300, Discount: 30, Tax: 48.6, Net: 318.6},
		},
		{
			name:     "five units at hundred with discount and gst",
			rate:     100, quantity: 5, discountRate: 10, gstRate: 18,
			want: LineAmounts{Gross: 500, Discount: 50, Tax: 81, Net: 531},
		},
		{
			name:     "no discount no gst",
			rate:     250, quantity: 4, discountRate: 0, gstRate: 0,
			want: LineAmounts{Gross: 1000, Discount: 0, Tax: 0, Net: 1000},
		},
		{
			name:     "zero quantity",
			rate:     99.5, quantity: 0, discountRate: 5, gstRate: 12,
			want: LineAmounts{},
		},
		{
			name:     "zero rate",
			rate:     0, quantity: 10, discountRate: 5, gstRate: 12,
			want: LineAmounts{},
		},
		{
			name:     "negative discount rate ignored",
			rate:     100, quantity: 1, discountRate: -10, gstRate: 18,
			want: LineAmounts{Gross: 100, Discount: 0, Tax: 18, Net: 118},
		},
		{
			name:     "fractional rate",
			rate:     33.33, quantity: 2, discountRate: 0, gstRate: 5,
			want: LineAmounts{Gross: 66.66, Discount: 0, Tax: 3.33, Net: 69.99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLineAmounts(tt.rate, tt.quantity, tt.discountRate, tt.gstRate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeLineAmountsNetIdentity(t *testing.T) {
	// Net always equals gross - discount + tax after rounding.
	cases := [][4]float64{
		{30, 10, 10, 18},
		{12.75, 7, 2.5, 12},
		{999.99, 3, 15, 28},
		{0.01, 1000, 0, 5},
	}
	for _, c := range cases {
		a := ComputeLineAmounts(c[0], c[1], c[2], c[3])
		assert.Equal(t, Round2(a.Gross-a.Discount+a.Tax), a.Net)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 48.6, Round2(48.6000000001))
	assert.Equal(t, 1.0, Round2(0.999))
	assert.Equal(t, 0.0, Round2(0))
}

func TestLineAmountsSubAndNeg(t *testing.T) {
	old := LineAmounts{Gross: 300, Discount: 30, Tax: 48.6, Net: 318.6}
	updated := LineAmounts{Gross: 500, Discount: 50, Tax: 81, Net: 531}

	delta := updated.Sub(old)
	assert.InDelta(t, 200, delta.Gross, 1e-9)
	assert.InDelta(t, 20, delta.Discount, 1e-9)
	assert.InDelta(t, 32.4, delta.Tax, 1e-9)
	assert.InDelta(t, 212.4, delta.Net, 1e-9)

	assert.Equal(t, LineAmounts{Gross: -300, Discount: -30, Tax: -48.6, Net: -318.6}, old.Neg())
	assert.Equal(t, LineAmounts{}, old.Sub(old))
}
