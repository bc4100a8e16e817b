package utils

import "math"

// LineAmounts holds the four derived monetary fields of a line item.
type LineAmounts struct {
	Gross    float64
	Discount float64
	Tax      float64
	Net      float64
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ComputeLineAmounts derives gross, discount, tax and net from a line
// item's rate, quantity and percentage rates. Every step is rounded to
// 2 decimals so aggregates never accumulate sub-paise drift.
func ComputeLineAmounts(rate, quantity, discountRate, gstRate float64) LineAmounts {
	gross := Round2(rate * quantity)

	var discount float64
	if discountRate > 0 {
		discount = Round2(gross * discountRate / 100)
	}

	tax := Round2((gross - discount) * gstRate / 100)
	net := Round2(gross - discount + tax)

	return LineAmounts{
		Gross:    gross,
		Discount: discount,
		Tax:      tax,
		Net:      net,
	}
}

// Sub returns the per-field delta new-minus-old, used to adjust parent
// aggregates when a line item changes.
func (a LineAmounts) Sub(old LineAmounts) LineAmounts {
	return LineAmounts{
		Gross:    a.Gross - old.Gross,
		Discount: a.Discount - old.Discount,
		Tax:      a.Tax - old.Tax,
		Net:      a.Net - old.Net,
	}
}

// Neg returns the negated amounts, used to reverse a deleted item out
// of its parent's aggregates.
func (a LineAmounts) Neg() LineAmounts {
	return LineAmounts{
		Gross:    -a.Gross,
		Discount: -a.Discount,
		Tax:      -a.Tax,
		Net:      -a.Net,
	}
}
